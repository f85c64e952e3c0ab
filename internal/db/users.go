package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/recipebox/backend/internal/model"
)

const userColumns = `id, name, email, password_hash, role, avatar, refresh_token_hash, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		user   model.User
		avatar []byte
	)
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&avatar,
		&user.RefreshTokenHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	if len(avatar) > 0 {
		user.Avatar = &model.ImageSlot{}
		if err := decodeJSON(avatar, user.Avatar); err != nil {
			return nil, err
		}
	}
	return &user, nil
}

func (db *Postgres) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	avatar, err := jsonArg(u.Avatar)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (id, name, email, password_hash, role, avatar, refresh_token_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, '', NOW(), NOW())
		RETURNING ` + userColumns
	return scanUser(db.Pool.QueryRow(ctx, query, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, avatar))
}

func (db *Postgres) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, email))
}

func (db *Postgres) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, id))
}

func (db *Postgres) GetUsersByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.Pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// SetRefreshTokenHash overwrites the stored refresh token digest. An empty
// hash revokes every refresh token of the user.
func (db *Postgres) SetRefreshTokenHash(ctx context.Context, userID, hash string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE users
		SET refresh_token_hash = $2, updated_at = NOW()
		WHERE id = $1
	`, userID, hash)
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
