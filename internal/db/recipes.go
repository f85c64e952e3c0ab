package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/recipebox/backend/internal/model"
)

const recipeColumns = `id, title, description, main_category_id, secondary_category_ids, author_id,
	publish_date, prep_time, cook_time, is_vegan, main_image, nutrition, ingredients, directions,
	created_at, updated_at`

func scanRecipe(row pgx.Row) (*model.Recipe, error) {
	var r model.Recipe
	var mainImage, nutrition, ingredients, directions []byte
	err := row.Scan(
		&r.ID,
		&r.Title,
		&r.Description,
		&r.MainCategoryID,
		&r.SecondaryCategoryIDs,
		&r.AuthorID,
		&r.PublishDate,
		&r.PrepTime,
		&r.CookTime,
		&r.IsVegan,
		&mainImage,
		&nutrition,
		&ingredients,
		&directions,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}

	if err := decodeJSON(mainImage, &r.MainImage); err != nil {
		return nil, err
	}
	if len(nutrition) > 0 && string(nutrition) != "null" {
		r.Nutrition = &model.Nutrition{}
		if err := decodeJSON(nutrition, r.Nutrition); err != nil {
			return nil, err
		}
	}
	if err := decodeJSON(ingredients, &r.Ingredients); err != nil {
		return nil, err
	}
	if err := decodeJSON(directions, &r.Directions); err != nil {
		return nil, err
	}
	if r.SecondaryCategoryIDs == nil {
		r.SecondaryCategoryIDs = []string{}
	}
	if r.Directions == nil {
		r.Directions = []model.DirectionStep{}
	}
	return &r, nil
}

func (db *Postgres) queryRecipes(ctx context.Context, query string, args ...any) ([]model.Recipe, error) {
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes := []model.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, *r)
	}
	return recipes, rows.Err()
}

// ListRecipes returns recipes matching the filters, newest first. Search is
// a case-insensitive substring match on title and description; category
// matches the main category.
func (db *Postgres) ListRecipes(ctx context.Context, filters model.RecipeFilters) ([]model.Recipe, error) {
	var (
		where []string
		args  []any
	)
	if s := strings.TrimSpace(filters.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if filters.Category != "" {
		args = append(args, filters.Category)
		where = append(where, fmt.Sprintf("main_category_id = $%d", len(args)))
	}

	query := `SELECT ` + recipeColumns + ` FROM recipes`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	return db.queryRecipes(ctx, query, args...)
}

func (db *Postgres) GetRecipeByID(ctx context.Context, id string) (*model.Recipe, error) {
	return scanRecipe(db.Pool.QueryRow(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = $1`, id))
}

func (db *Postgres) GetRecipeByTitle(ctx context.Context, title string) (*model.Recipe, error) {
	return scanRecipe(db.Pool.QueryRow(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE title = $1`, title))
}

// ListOtherRecipes returns up to limit random recipes other than excludeID.
func (db *Postgres) ListOtherRecipes(ctx context.Context, excludeID string, limit int) ([]model.Recipe, error) {
	return db.queryRecipes(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id <> $1 ORDER BY random() LIMIT $2`,
		excludeID, limit)
}

func (db *Postgres) ListRecipesByCategory(ctx context.Context, categoryID string) ([]model.Recipe, error) {
	return db.queryRecipes(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE main_category_id = $1 ORDER BY created_at DESC`,
		categoryID)
}

func (db *Postgres) CreateRecipe(ctx context.Context, r *model.Recipe) (*model.Recipe, error) {
	mainImage, err := jsonArg(r.MainImage)
	if err != nil {
		return nil, err
	}
	nutrition, err := jsonArg(r.Nutrition)
	if err != nil {
		return nil, err
	}
	ingredients, err := jsonArg(r.Ingredients)
	if err != nil {
		return nil, err
	}
	directions, err := jsonArg(nonNilSteps(r.Directions))
	if err != nil {
		return nil, err
	}
	secondary := r.SecondaryCategoryIDs
	if secondary == nil {
		secondary = []string{}
	}

	query := `
		INSERT INTO recipes (
			id, title, description, main_category_id, secondary_category_ids, author_id,
			publish_date, prep_time, cook_time, is_vegan, main_image, nutrition, ingredients, directions,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING ` + recipeColumns
	return scanRecipe(db.Pool.QueryRow(ctx, query,
		r.ID, r.Title, r.Description, r.MainCategoryID, secondary, r.AuthorID,
		r.PrepTime, r.CookTime, r.IsVegan, mainImage, nutrition, ingredients, directions,
	))
}

// UpdateRecipe applies the non-nil fields of upd atomically and returns the
// updated row.
func (db *Postgres) UpdateRecipe(ctx context.Context, id string, upd model.RecipeUpdate) (*model.Recipe, error) {
	mainImage, err := jsonArg(upd.MainImage)
	if err != nil {
		return nil, err
	}
	nutrition, err := jsonArg(upd.Nutrition)
	if err != nil {
		return nil, err
	}
	ingredients, err := jsonArg(upd.Ingredients)
	if err != nil {
		return nil, err
	}
	directions, err := jsonArg(upd.Directions)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE recipes
		SET title = COALESCE($2, title),
			description = COALESCE($3, description),
			main_category_id = COALESCE($4, main_category_id),
			secondary_category_ids = COALESCE($5::text[], secondary_category_ids),
			prep_time = COALESCE($6, prep_time),
			cook_time = COALESCE($7, cook_time),
			is_vegan = COALESCE($8, is_vegan),
			main_image = COALESCE($9::jsonb, main_image),
			nutrition = COALESCE($10::jsonb, nutrition),
			ingredients = COALESCE($11::jsonb, ingredients),
			directions = COALESCE($12::jsonb, directions),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + recipeColumns
	return scanRecipe(db.Pool.QueryRow(ctx, query,
		id, upd.Title, upd.Description, upd.MainCategoryID, upd.SecondaryCategoryIDs,
		upd.PrepTime, upd.CookTime, upd.IsVegan, mainImage, nutrition, ingredients, directions,
	))
}

func (db *Postgres) DeleteRecipe(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *Postgres) DeleteRecipesByCategory(ctx context.Context, categoryID string) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM recipes WHERE main_category_id = $1`, categoryID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// PullSecondaryCategory removes categoryID from every recipe's secondary
// categories.
func (db *Postgres) PullSecondaryCategory(ctx context.Context, categoryID string) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE recipes
		SET secondary_category_ids = array_remove(secondary_category_ids, $1), updated_at = NOW()
		WHERE $1 = ANY(secondary_category_ids)
	`, categoryID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func nonNilSteps(steps []model.DirectionStep) []model.DirectionStep {
	if steps == nil {
		return []model.DirectionStep{}
	}
	return steps
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
