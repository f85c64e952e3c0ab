package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/recipebox/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIngredients = `[{"title":"Base","items":["tomatoes","salt"]}]`
	testDirections  = `[{"order":1,"title":"Chop","description":"Chop it"},{"order":2,"title":"Cook","description":"Cook it"}]`
)

func recipeValues(title, mainCategory string, secondary []string) map[string]string {
	sec, _ := json.Marshal(secondary)
	return map[string]string{
		"title":               title,
		"description":         "A " + title,
		"mainCategory":        mainCategory,
		"secondaryCategories": string(sec),
		"prepTime":            "10",
		"cookTime":            "20",
		"isVegan":             "true",
		"nutrition":           `{"calories":120,"protein":4}`,
		"ingredients":         testIngredients,
		"directions":          testDirections,
	}
}

func (s *testServer) createRecipe(t *testing.T, token, title, mainCategory string, secondary []string) model.Recipe {
	t.Helper()
	body, ct := multipartBody(t, recipeValues(title, mainCategory, secondary), png("mainImage"))
	w := s.do(request{method: http.MethodPost, path: "/api/v1/recipes", body: body, contentType: ct, token: token})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var recipe model.Recipe
	decodeData(t, w, &recipe)
	return recipe
}

func TestRecipe_CreateWithStepImages(t *testing.T) {
	s := newTestServer(t)
	admin, _ := s.login(t, "admin@example.com", "password123", model.RoleAdmin)
	soup := s.createCategory(t, admin, "Soup")
	vegan := s.createCategory(t, admin, "Vegan")
	cook, _ := s.login(t, "cook@example.com", "password123", model.RoleUser)

	values := recipeValues("Tomato soup", `{"_id":"`+soup.ID+`","name":"Soup"}`, nil)
	values["secondaryCategories"] = `[{"id":"` + vegan.ID + `"}]`
	body, ct := multipartBody(t, values, png("mainImage"), png("directionImage_2"), png("directionImage_9"))
	w := s.do(request{method: http.MethodPost, path: "/api/v1/recipes", body: body, contentType: ct, token: cook})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var recipe model.Recipe
	decodeData(t, w, &recipe)
	assert.Equal(t, "Tomato soup", recipe.Title)
	assert.Equal(t, soup.ID, recipe.MainCategoryID)
	assert.Equal(t, []string{vegan.ID}, recipe.SecondaryCategoryIDs)
	assert.Equal(t, 10, recipe.PrepTime)
	assert.True(t, recipe.IsVegan)
	require.NotNil(t, recipe.Nutrition)
	assert.InDelta(t, 120.0, recipe.Nutrition.Calories, 0.001)
	assert.True(t, strings.HasPrefix(recipe.MainImage.URL, testPublicURL+"/recipes/"), recipe.MainImage.URL)

	require.Len(t, recipe.Directions, 2)
	assert.Nil(t, recipe.Directions[0].Image)
	require.NotNil(t, recipe.Directions[1].Image)
	assert.True(t, strings.HasPrefix(recipe.Directions[1].Image.URL, testPublicURL+"/directions/"))

	require.NotNil(t, recipe.Author)
	assert.Equal(t, "Cook", recipe.Author.Name)
	require.NotNil(t, recipe.MainCategory)
	assert.Equal(t, "Soup", recipe.MainCategory.Name)
}

func TestRecipe_CreateJSONBodyNeedsImage(t *testing.T) {
	s := newTestServer(t)
	admin, _ := s.login(t, "admin@example.com", "password123", model.RoleAdmin)
	soup := s.createCategory(t, admin, "Soup")

	w := s.doJSON(http.MethodPost, "/api/v1/recipes", admin, map[string]any{
		"title":        "Tomato soup",
		"mainCategory": soup.ID,
		"ingredients":  json.RawMessage(testIngredients),
		"directions":   json.RawMessage(testDirections),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Recipe image is required", decode(t, w).Error)
}

func TestRecipe_NullSecondaryCategoriesMatchAcrossBindings(t *testing.T) {
	s := newTestServer(t)
	admin, _ := s.login(t, "admin@example.com", "password123", model.RoleAdmin)
	soup := s.createCategory(t, admin, "Soup")

	w := s.doJSON(http.MethodPost, "/api/v1/recipes", admin, map[string]any{
		"title":               "Tomato soup",
		"mainCategory":        soup.ID,
		"secondaryCategories": nil,
		"ingredients":         json.RawMessage(testIngredients),
		"directions":          json.RawMessage(testDirections),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Recipe image is required", decode(t, w).Error)

	values := recipeValues("Tomato soup", soup.ID, nil)
	require.Equal(t, "null", values["secondaryCategories"])
	body, ct := multipartBody(t, values)
	w = s.do(request{method: http.MethodPost, path: "/api/v1/recipes", body: body, contentType: ct, token: admin})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Equal(t, "Recipe image is required", env.Error)
	assert.Empty(t, env.ValidationErrors)

	recipe := s.createRecipe(t, admin, "Tomato soup", soup.ID, nil)
	assert.Empty(t, recipe.SecondaryCategoryIDs)
}

func TestRecipe_CreateFailureDiscardsFiles(t *testing.T) {
	s := newTestServer(t)
	admin, _ := s.login(t, "admin@example.com", "password123", model.RoleAdmin)
	s.createCategory(t, admin, "Soup")
	stored := len(s.blobs.keys())

	// Valid body, but the main category does not exist.
	values := recipeValues("Tomato soup", "6a1c1f40-2222-4a4a-9c9c-0000000000ff", nil)
	body, ct := multipartBody(t, values, png("mainImage"), png("directionImage_1"))
	w := s.do(request{method: http.MethodPost, path: "/api/v1/recipes", body: body, contentType: ct, token: admin})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Main category does not exist", decode(t, w).Error)
	assert.Len(t, s.blobs.keys(), stored)
}

func TestRecipe_CreateValidation(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.login(t, "cook@example.com", "password123", model.RoleUser)

	values := map[string]string{
		"title":        " ",
		"mainCategory": "nope",
		"prepTime":     "soon",
		"ingredients":  "[not json",
	}
	body, ct := multipartBody(t, values, png("mainImage"))
	w := s.do(request{method: http.MethodPost, path: "/api/v1/recipes", body: body, contentType: ct, token: token})
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decode(t, w)
	fields := map[string]string{}
	for _, f := range env.ValidationErrors {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "prepTime must be a number", fields["prepTime"])
	assert.Equal(t, "ingredients must be valid JSON", fields["ingredients"])
	assert.Empty(t, s.blobs.keys())

	body, ct = multipartBody(t, map[string]string{"title": " ", "mainCategory": "nope"}, png("mainImage"))
	w = s.do(request{method: http.MethodPost, path: "/api/v1/recipes", body: body, contentType: ct, token: token})
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields = map[string]string{}
	for _, f := range decode(t, w).ValidationErrors {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "title is required", fields["title"])
	assert.Equal(t, "mainCategory must be a valid ID", fields["mainCategory"])
	assert.Equal(t, "ingredients is required", fields["ingredients"])
}

func TestRecipe_RequiresAuth(t *testing.T) {
	s := newTestServer(t)

	body, ct := multipartBody(t, map[string]string{"title": "Soup"}, png("mainImage"))
	w := s.do(request{method: http.MethodPost, path: "/api/v1/recipes", body: body, contentType: ct})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, s.blobs.keys())
}

func TestRecipe_DetailListAndFilters(t *testing.T) {
	s := newTestServer(t)
	admin, _ := s.login(t, "admin@example.com", "password123", model.RoleAdmin)
	soup := s.createCategory(t, admin, "Soup")
	salad := s.createCategory(t, admin, "Salad")

	tomato := s.createRecipe(t, admin, "Tomato soup", soup.ID, nil)
	s.createRecipe(t, admin, "Onion soup", soup.ID, nil)
	s.createRecipe(t, admin, "Greek salad", salad.ID, []string{soup.ID})

	w := s.do(request{method: http.MethodGet, path: "/api/v1/recipes/" + tomato.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var detail model.RecipeDetail
	decodeData(t, w, &detail)
	require.NotNil(t, detail.Recipe)
	assert.Equal(t, tomato.ID, detail.Recipe.ID)
	assert.Len(t, detail.OtherRecipes, 2)
	for _, other := range detail.OtherRecipes {
		assert.NotEqual(t, tomato.ID, other.ID)
	}

	var list []model.Recipe
	w = s.do(request{method: http.MethodGet, path: "/api/v1/recipes"})
	decodeData(t, w, &list)
	require.Len(t, list, 3)
	assert.Equal(t, "Greek salad", list[0].Title)

	w = s.do(request{method: http.MethodGet, path: "/api/v1/recipes?search=" + url.QueryEscape("SOUP")})
	decodeData(t, w, &list)
	assert.Len(t, list, 2)

	w = s.do(request{method: http.MethodGet, path: "/api/v1/recipes?category=" + salad.ID})
	decodeData(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Greek salad", list[0].Title)

	w = s.do(request{method: http.MethodGet, path: "/api/v1/recipes/category/" + soup.ID})
	decodeData(t, w, &list)
	assert.Len(t, list, 2)

	w = s.do(request{method: http.MethodGet, path: "/api/v1/recipes?category=bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(request{method: http.MethodGet, path: "/api/v1/recipes/bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid Recipe ID in URL", decode(t, w).Error)
}

func TestRecipe_UpdateKeepsImages(t *testing.T) {
	s := newTestServer(t)
	admin, _ := s.login(t, "admin@example.com", "password123", model.RoleAdmin)
	soup := s.createCategory(t, admin, "Soup")

	values := recipeValues("Tomato soup", soup.ID, nil)
	body, ct := multipartBody(t, values, png("mainImage"), png("directionImage_1"))
	w := s.do(request{method: http.MethodPost, path: "/api/v1/recipes", body: body, contentType: ct, token: admin})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created model.Recipe
	decodeData(t, w, &created)
	require.NotNil(t, created.Directions[0].Image)

	values["title"] = "Roasted tomato soup"
	values["directions"] = `[{"order":1,"title":"Roast","description":"Roast it"}]`
	delete(values, "secondaryCategories")
	body, ct = multipartBody(t, values)
	w = s.do(request{method: http.MethodPut, path: "/api/v1/recipes/" + created.ID, body: body, contentType: ct, token: admin})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated model.Recipe
	decodeData(t, w, &updated)
	assert.Equal(t, "Roasted tomato soup", updated.Title)
	assert.Equal(t, created.MainImage, updated.MainImage)
	require.Len(t, updated.Directions, 1)
	assert.Equal(t, "Roast", updated.Directions[0].Title)
	assert.Equal(t, created.Directions[0].Image, updated.Directions[0].Image)
	assert.Equal(t, created.AuthorID, updated.AuthorID)
}

func TestRecipe_TitleConflictAndDelete(t *testing.T) {
	s := newTestServer(t)
	admin, _ := s.login(t, "admin@example.com", "password123", model.RoleAdmin)
	soup := s.createCategory(t, admin, "Soup")
	recipe := s.createRecipe(t, admin, "Tomato soup", soup.ID, nil)

	body, ct := multipartBody(t, recipeValues("Tomato soup", soup.ID, nil), png("mainImage"))
	w := s.do(request{method: http.MethodPost, path: "/api/v1/recipes", body: body, contentType: ct, token: admin})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Recipe with the same title already exist", decode(t, w).Error)

	w = s.do(request{method: http.MethodDelete, path: "/api/v1/recipes/" + recipe.ID, token: admin})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Recipe deleted successfully", decode(t, w).Message)

	w = s.do(request{method: http.MethodGet, path: "/api/v1/recipes/" + recipe.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
