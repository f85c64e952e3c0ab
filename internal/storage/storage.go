// Package storage holds uploaded files. Keys are slash-separated paths such
// as "recipes/<uuid>.jpg"; the public URL of a key is the configured base URL
// joined with the key.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/recipebox/backend/internal/config"
)

type Storage interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// New picks the backend named by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocal(cfg.BasePath)
	case "s3":
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
