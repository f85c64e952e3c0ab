package service

import (
	"context"

	"github.com/recipebox/backend/internal/model"
)

// UserRepository is implemented by *db.Postgres and *memdb.Store.
type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]model.User, error)
	SetRefreshTokenHash(ctx context.Context, userID, hash string) error
}

type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	GetCategoriesByIDs(ctx context.Context, ids []string) ([]model.Category, error)
	CreateCategory(ctx context.Context, c *model.Category) (*model.Category, error)
	UpdateCategory(ctx context.Context, id string, upd model.CategoryUpdate) (*model.Category, error)
	// DeleteCategoryCascade deletes the category, its recipes and its
	// secondary references atomically, returning the recipes deleted and
	// updated.
	DeleteCategoryCascade(ctx context.Context, id string) (int64, int64, error)
}

type RecipeRepository interface {
	ListRecipes(ctx context.Context, filters model.RecipeFilters) ([]model.Recipe, error)
	GetRecipeByID(ctx context.Context, id string) (*model.Recipe, error)
	GetRecipeByTitle(ctx context.Context, title string) (*model.Recipe, error)
	ListOtherRecipes(ctx context.Context, excludeID string, limit int) ([]model.Recipe, error)
	ListRecipesByCategory(ctx context.Context, categoryID string) ([]model.Recipe, error)
	CreateRecipe(ctx context.Context, r *model.Recipe) (*model.Recipe, error)
	UpdateRecipe(ctx context.Context, id string, upd model.RecipeUpdate) (*model.Recipe, error)
	DeleteRecipe(ctx context.Context, id string) error
	DeleteRecipesByCategory(ctx context.Context, categoryID string) (int64, error)
	PullSecondaryCategory(ctx context.Context, categoryID string) (int64, error)
}
