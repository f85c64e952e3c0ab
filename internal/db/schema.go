package db

import "context"

// EnsureSchema creates the tables and indexes if they do not exist yet.
func (db *Postgres) EnsureSchema(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'USER',
			avatar JSONB,
			refresh_token_hash TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users(email)`,
		`
		CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			image JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
		`CREATE UNIQUE INDEX IF NOT EXISTS categories_name_key ON categories(name)`,
		`
		CREATE TABLE IF NOT EXISTS recipes (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			main_category_id TEXT NOT NULL,
			secondary_category_ids TEXT[] NOT NULL DEFAULT '{}',
			author_id TEXT NOT NULL,
			publish_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			prep_time INTEGER NOT NULL DEFAULT 0,
			cook_time INTEGER NOT NULL DEFAULT 0,
			is_vegan BOOLEAN NOT NULL DEFAULT FALSE,
			main_image JSONB NOT NULL,
			nutrition JSONB,
			ingredients JSONB NOT NULL,
			directions JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
		`CREATE UNIQUE INDEX IF NOT EXISTS recipes_title_key ON recipes(title)`,
		`CREATE INDEX IF NOT EXISTS recipes_main_category_idx ON recipes(main_category_id)`,
		`CREATE INDEX IF NOT EXISTS recipes_secondary_categories_idx ON recipes USING GIN (secondary_category_ids)`,
	}

	for _, query := range queries {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}
