package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/recipebox/backend/internal/model"
)

const categoryColumns = `id, name, description, image, created_at, updated_at`

func scanCategory(row pgx.Row) (*model.Category, error) {
	var (
		c     model.Category
		image []byte
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &image, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	if err := decodeJSON(image, &c.Image); err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *Postgres) queryCategories(ctx context.Context, query string, args ...any) ([]model.Category, error) {
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (db *Postgres) ListCategories(ctx context.Context) ([]model.Category, error) {
	return db.queryCategories(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY created_at DESC`)
}

func (db *Postgres) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	return scanCategory(db.Pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
}

func (db *Postgres) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	return scanCategory(db.Pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE name = $1`, name))
}

func (db *Postgres) GetCategoriesByIDs(ctx context.Context, ids []string) ([]model.Category, error) {
	if len(ids) == 0 {
		return []model.Category{}, nil
	}
	return db.queryCategories(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ANY($1)`, ids)
}

func (db *Postgres) CreateCategory(ctx context.Context, c *model.Category) (*model.Category, error) {
	image, err := jsonArg(c.Image)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO categories (id, name, description, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING ` + categoryColumns
	return scanCategory(db.Pool.QueryRow(ctx, query, c.ID, c.Name, c.Description, image))
}

// UpdateCategory applies the non-nil fields of upd in one statement and
// returns the updated row.
func (db *Postgres) UpdateCategory(ctx context.Context, id string, upd model.CategoryUpdate) (*model.Category, error) {
	image, err := jsonArg(upd.Image)
	if err != nil {
		return nil, err
	}
	query := `
		UPDATE categories
		SET name = COALESCE($2, name),
			description = COALESCE($3, description),
			image = COALESCE($4::jsonb, image),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + categoryColumns
	return scanCategory(db.Pool.QueryRow(ctx, query, id, upd.Name, upd.Description, image))
}

// DeleteCategoryCascade removes the category, the recipes filed under it as
// main category and its id from every recipe's secondary categories, all in
// one transaction. It reports how many recipes were deleted and updated.
func (db *Postgres) DeleteCategoryCascade(ctx context.Context, id string) (int64, int64, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	deleted, err := tx.Exec(ctx, `DELETE FROM recipes WHERE main_category_id = $1`, id)
	if err != nil {
		return 0, 0, err
	}

	pulled, err := tx.Exec(ctx, `
		UPDATE recipes
		SET secondary_category_ids = array_remove(secondary_category_ids, $1), updated_at = NOW()
		WHERE $1 = ANY(secondary_category_ids)
	`, id)
	if err != nil {
		return 0, 0, err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return 0, 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, 0, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}
	return deleted.RowsAffected(), pulled.RowsAffected(), nil
}
