package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/recipebox/backend/internal/apperror"
	"github.com/recipebox/backend/internal/db"
	"github.com/recipebox/backend/internal/logging"
	"github.com/recipebox/backend/internal/model"
	"github.com/recipebox/backend/internal/upload"
)

const (
	DefaultOtherRecipes = 3

	msgRecipeNotFound  = "Recipe not found"
	msgRecipeDuplicate = "Recipe with the same title already exist"
)

type RecipeService struct {
	recipes    RecipeRepository
	categories CategoryRepository
	users      UserRepository
	images     *upload.Reconciler
	log        logging.Logger
}

func NewRecipeService(recipes RecipeRepository, categories CategoryRepository, users UserRepository, images *upload.Reconciler, log logging.Logger) *RecipeService {
	return &RecipeService{
		recipes:    recipes,
		categories: categories,
		users:      users,
		images:     images,
		log:        log,
	}
}

func (s *RecipeService) FindAll(ctx context.Context, filters model.RecipeFilters) ([]model.Recipe, error) {
	recipes, err := s.recipes.ListRecipes(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return s.populate(ctx, recipes)
}

func (s *RecipeService) FindByID(ctx context.Context, id string) (*model.Recipe, error) {
	recipe, err := s.recipes.GetRecipeByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, msgRecipeNotFound)
	}
	return s.populateOne(ctx, recipe)
}

func (s *RecipeService) FindByTitle(ctx context.Context, title string) (*model.Recipe, error) {
	recipe, err := s.recipes.GetRecipeByTitle(ctx, title)
	if err != nil {
		return nil, notFoundOr(err, msgRecipeNotFound)
	}
	return s.populateOne(ctx, recipe)
}

// FindOtherRecipes returns a random sample of at most limit recipes other
// than id.
func (s *RecipeService) FindOtherRecipes(ctx context.Context, id string, limit int) ([]model.Recipe, error) {
	if id == "" {
		return nil, apperror.BadRequest("Recipe ID is required")
	}
	if limit <= 0 {
		limit = DefaultOtherRecipes
	}
	recipes, err := s.recipes.ListOtherRecipes(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list other recipes: %w", err)
	}
	return s.populate(ctx, recipes)
}

// Detail is a recipe together with a few others to browse next.
func (s *RecipeService) Detail(ctx context.Context, id string) (model.RecipeDetail, error) {
	recipe, err := s.FindByID(ctx, id)
	if err != nil {
		return model.RecipeDetail{}, err
	}
	others, err := s.FindOtherRecipes(ctx, id, DefaultOtherRecipes)
	if err != nil {
		return model.RecipeDetail{}, err
	}
	return model.RecipeDetail{Recipe: recipe, OtherRecipes: others}, nil
}

func (s *RecipeService) FindByCategory(ctx context.Context, categoryID string) ([]model.Recipe, error) {
	if categoryID == "" {
		return nil, apperror.BadRequest("Category ID is required")
	}
	recipes, err := s.recipes.ListRecipesByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list recipes by category: %w", err)
	}
	return s.populate(ctx, recipes)
}

func (s *RecipeService) PullSecondaryCategory(ctx context.Context, categoryID string) (int64, error) {
	if categoryID == "" {
		return 0, apperror.BadRequest("Category ID is required")
	}
	return s.recipes.PullSecondaryCategory(ctx, categoryID)
}

func (s *RecipeService) DeleteByCategory(ctx context.Context, categoryID string) (int64, error) {
	if categoryID == "" {
		return 0, apperror.BadRequest("Category ID is required")
	}
	return s.recipes.DeleteRecipesByCategory(ctx, categoryID)
}

// Create stores a new recipe authored by userID. The batch must carry the
// main image; step images are optional.
func (s *RecipeService) Create(ctx context.Context, userID string, batch upload.Batch, req model.RecipeRequest) (*model.Recipe, error) {
	if userID == "" {
		return nil, apperror.BadRequest("User ID is required")
	}

	title := strings.TrimSpace(req.Title)
	if err := s.ensureTitleFree(ctx, title, ""); err != nil {
		return nil, err
	}
	if len(req.Directions) == 0 {
		return nil, apperror.BadRequest("Recipe directions are required")
	}

	files, err := s.images.Reconcile(batch, req.Directions, upload.ModeCreate)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCategories(ctx, req.MainCategory, req.SecondaryCategories); err != nil {
		return nil, err
	}

	recipe := &model.Recipe{
		ID:                   uuid.NewString(),
		Title:                title,
		MainCategoryID:       req.MainCategory,
		SecondaryCategoryIDs: dedupe(req.SecondaryCategories),
		AuthorID:             userID,
		MainImage:            *files.MainImage,
		Nutrition:            req.Nutrition,
		Ingredients:          model.Ingredients{Sections: req.Ingredients},
		Directions:           files.Directions,
	}
	if req.Description != nil {
		recipe.Description = strings.TrimSpace(*req.Description)
	}
	if req.PrepTime != nil {
		recipe.PrepTime = *req.PrepTime
	}
	if req.CookTime != nil {
		recipe.CookTime = *req.CookTime
	}
	if req.IsVegan != nil {
		recipe.IsVegan = *req.IsVegan
	}

	created, err := s.recipes.CreateRecipe(ctx, recipe)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperror.Conflict(msgRecipeDuplicate)
		}
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	s.log.Info(ctx, "recipe created", "recipe_id", created.ID, "author_id", userID)
	return s.populateOne(ctx, created)
}

// Update applies req to recipe id. The main image changes only when a new
// one was uploaded. Directions are replaced only when supplied; a step that
// gets no new upload keeps the image stored for the same order.
func (s *RecipeService) Update(ctx context.Context, userID, id string, batch upload.Batch, req model.RecipeRequest) (*model.Recipe, error) {
	if userID == "" {
		return nil, apperror.BadRequest("User ID is required")
	}

	existing, err := s.recipes.GetRecipeByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, msgRecipeNotFound)
	}

	title := strings.TrimSpace(req.Title)
	if err := s.ensureTitleFree(ctx, title, id); err != nil {
		return nil, err
	}

	files, err := s.images.Reconcile(batch, req.Directions, upload.ModeUpdate)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCategories(ctx, req.MainCategory, req.SecondaryCategories); err != nil {
		return nil, err
	}

	upd := model.RecipeUpdate{
		Title:          &title,
		MainCategoryID: &req.MainCategory,
		PrepTime:       req.PrepTime,
		CookTime:       req.CookTime,
		IsVegan:        req.IsVegan,
		MainImage:      files.MainImage,
		Nutrition:      req.Nutrition,
		Ingredients:    &model.Ingredients{Sections: req.Ingredients},
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		upd.Description = &description
	}
	if req.SecondaryCategories != nil {
		upd.SecondaryCategoryIDs = dedupe(req.SecondaryCategories)
	}
	if files.Directions != nil {
		upd.Directions = keepStepImages(files.Directions, existing.Directions)
	}

	updated, err := s.recipes.UpdateRecipe(ctx, id, upd)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperror.Conflict(msgRecipeDuplicate)
		}
		return nil, notFoundOr(err, msgRecipeNotFound)
	}

	s.log.Info(ctx, "recipe updated", "recipe_id", id, "user_id", userID)
	return s.populateOne(ctx, updated)
}

func (s *RecipeService) Delete(ctx context.Context, id string) error {
	if _, err := s.recipes.GetRecipeByID(ctx, id); err != nil {
		return notFoundOr(err, msgRecipeNotFound)
	}
	if err := s.recipes.DeleteRecipe(ctx, id); err != nil {
		return notFoundOr(err, msgRecipeNotFound)
	}
	s.log.Info(ctx, "recipe deleted", "recipe_id", id)
	return nil
}

func (s *RecipeService) ensureTitleFree(ctx context.Context, title, selfID string) error {
	existing, err := s.recipes.GetRecipeByTitle(ctx, title)
	switch {
	case err == nil && existing.ID != selfID:
		return apperror.Conflict(msgRecipeDuplicate)
	case err == nil, errors.Is(err, db.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("lookup recipe: %w", err)
	}
}

func (s *RecipeService) ensureCategories(ctx context.Context, mainID string, secondaryIDs []string) error {
	ids := dedupe(append([]string{mainID}, secondaryIDs...))
	found, err := s.categories.GetCategoriesByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("lookup categories: %w", err)
	}
	if len(found) == len(ids) {
		return nil
	}

	known := make(map[string]bool, len(found))
	for _, c := range found {
		known[c.ID] = true
	}
	if !known[mainID] {
		return apperror.BadRequest("Main category does not exist")
	}
	return apperror.BadRequest("One or more secondary categories do not exist")
}

// populate resolves the category and author references of recipes with one
// lookup per collection.
func (s *RecipeService) populate(ctx context.Context, recipes []model.Recipe) ([]model.Recipe, error) {
	if len(recipes) == 0 {
		return []model.Recipe{}, nil
	}

	var categoryIDs, authorIDs []string
	for _, r := range recipes {
		categoryIDs = append(categoryIDs, r.MainCategoryID)
		categoryIDs = append(categoryIDs, r.SecondaryCategoryIDs...)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	categories, err := s.categories.GetCategoriesByIDs(ctx, dedupe(categoryIDs))
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	users, err := s.users.GetUsersByIDs(ctx, dedupe(authorIDs))
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}

	byID := make(map[string]model.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	authors := make(map[string]model.Author, len(users))
	for _, u := range users {
		authors[u.ID] = model.Author{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
	}

	for i := range recipes {
		r := &recipes[i]
		if c, ok := byID[r.MainCategoryID]; ok {
			r.MainCategory = &c
		}
		r.SecondaryCategories = []model.Category{}
		for _, id := range r.SecondaryCategoryIDs {
			if c, ok := byID[id]; ok {
				r.SecondaryCategories = append(r.SecondaryCategories, c)
			}
		}
		if a, ok := authors[r.AuthorID]; ok {
			r.Author = &a
		}
	}
	return recipes, nil
}

func (s *RecipeService) populateOne(ctx context.Context, recipe *model.Recipe) (*model.Recipe, error) {
	out, err := s.populate(ctx, []model.Recipe{*recipe})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// keepStepImages gives every step without a new upload the image stored for
// the same order on the previous version of the recipe.
func keepStepImages(steps, previous []model.DirectionStep) []model.DirectionStep {
	prior := make(map[int]*model.ImageSlot, len(previous))
	for _, p := range previous {
		if p.Image != nil {
			prior[p.Order] = p.Image
		}
	}
	for i := range steps {
		if steps[i].Image == nil {
			steps[i].Image = prior[steps[i].Order]
		}
	}
	return steps
}

func dedupe(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
