package upload

import (
	"testing"

	"github.com/recipebox/backend/internal/apperror"
	"github.com/recipebox/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const publicURL = "http://localhost:8080/upload"

func stored(field, folder, name string) StoredFile {
	return StoredFile{Field: field, Name: name, Key: folder + "/" + name, ContentType: "image/jpeg", Size: 10}
}

func TestReconcile_MatchesStepImagesByOrder(t *testing.T) {
	t.Parallel()
	r := NewReconciler(publicURL)
	batch := Batch{
		FieldMainImage:    stored(FieldMainImage, FolderRecipes, "main.jpg"),
		DirectionField(2): stored(DirectionField(2), FolderDirections, "step2.jpg"),
	}
	directions := []model.DirectionStep{
		{Order: 1, Title: "Mix", Description: "Mix it"},
		{Order: 2, Title: "Bake", Description: "Bake it"},
	}

	got, err := r.Reconcile(batch, directions, ModeCreate)
	require.NoError(t, err)

	require.NotNil(t, got.MainImage)
	assert.Equal(t, model.ImageSlot{Name: "main.jpg", URL: publicURL + "/recipes/main.jpg"}, *got.MainImage)

	require.Len(t, got.Directions, 2)
	assert.Nil(t, got.Directions[0].Image)
	require.NotNil(t, got.Directions[1].Image)
	assert.Equal(t, "step2.jpg", got.Directions[1].Image.Name)
	assert.Equal(t, publicURL+"/directions/step2.jpg", got.Directions[1].Image.URL)
}

func TestReconcile_StepOrderNotPosition(t *testing.T) {
	t.Parallel()
	r := NewReconciler(publicURL)
	batch := Batch{
		FieldMainImage:    stored(FieldMainImage, FolderRecipes, "main.jpg"),
		DirectionField(1): stored(DirectionField(1), FolderDirections, "one.jpg"),
	}
	directions := []model.DirectionStep{{Order: 3}, {Order: 1}}

	got, err := r.Reconcile(batch, directions, ModeCreate)
	require.NoError(t, err)
	assert.Nil(t, got.Directions[0].Image)
	require.NotNil(t, got.Directions[1].Image)
	assert.Equal(t, "one.jpg", got.Directions[1].Image.Name)
}

func TestReconcile_MissingMainImage(t *testing.T) {
	t.Parallel()
	r := NewReconciler(publicURL)
	directions := []model.DirectionStep{{Order: 1}}

	_, err := r.Reconcile(Batch{}, directions, ModeCreate)
	require.Error(t, err)
	appErr := apperror.As(err)
	assert.Equal(t, apperror.KindBadRequest, appErr.Kind)
	assert.Equal(t, "Recipe image is required", appErr.Message)

	got, err := r.Reconcile(Batch{}, directions, ModeUpdate)
	require.NoError(t, err)
	assert.Nil(t, got.MainImage)
}

func TestReconcile_DiscardsClientImagesAndIgnoresStrays(t *testing.T) {
	t.Parallel()
	r := NewReconciler(publicURL)
	batch := Batch{
		FieldMainImage:    stored(FieldMainImage, FolderRecipes, "main.jpg"),
		"somethingElse":   stored("somethingElse", FolderRecipes, "stray.jpg"),
		DirectionField(9): stored(DirectionField(9), FolderDirections, "nine.jpg"),
	}
	directions := []model.DirectionStep{
		{Order: 1, Image: &model.ImageSlot{Name: "forged.jpg", URL: "http://evil/forged.jpg"}},
	}

	got, err := r.Reconcile(batch, directions, ModeCreate)
	require.NoError(t, err)
	require.Len(t, got.Directions, 1)
	assert.Nil(t, got.Directions[0].Image)
	// Input is left untouched.
	assert.NotNil(t, directions[0].Image)
}

func TestReconcile_NilDirections(t *testing.T) {
	t.Parallel()
	r := NewReconciler(publicURL)
	got, err := r.Reconcile(Batch{}, nil, ModeUpdate)
	require.NoError(t, err)
	assert.Nil(t, got.Directions)
}

func TestImage(t *testing.T) {
	t.Parallel()
	r := NewReconciler(publicURL)
	batch := Batch{FieldImage: stored(FieldImage, FolderCategories, "cat.png")}

	slot, err := r.Image(batch, FieldImage, ModeCreate, "Category image is required")
	require.NoError(t, err)
	assert.Equal(t, &model.ImageSlot{Name: "cat.png", URL: publicURL + "/categories/cat.png"}, slot)

	_, err = r.Image(Batch{}, FieldImage, ModeCreate, "Category image is required")
	assert.EqualError(t, err, "bad_request: Category image is required")

	slot, err = r.Image(Batch{}, FieldAvatar, ModeUpdate, "")
	require.NoError(t, err)
	assert.Nil(t, slot)
}
