// Package upload turns the files of a multipart request into stored blobs
// and maps them onto the image slots of categories, recipes and users.
package upload

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/recipebox/backend/internal/apperror"
	"github.com/recipebox/backend/internal/storage"
)

const (
	FieldMainImage       = "mainImage"
	FieldImage           = "image"
	FieldAvatar          = "avatar"
	directionFieldPrefix = "directionImage_"
)

// Storage prefixes per kind of image.
const (
	FolderAvatars    = "avatars"
	FolderRecipes    = "recipes"
	FolderCategories = "categories"
	FolderDirections = "directions"
)

// DirectionField is the multipart field that carries the image of the step
// with the given order.
func DirectionField(order int) string {
	return fmt.Sprintf("%s%d", directionFieldPrefix, order)
}

// StoredFile is one uploaded file after it has been written to storage.
type StoredFile struct {
	Field       string
	Name        string
	Key         string
	ContentType string
	Size        int64
}

// Batch holds the stored files of one request keyed by form field. Only the
// first file of each field is kept.
type Batch map[string]StoredFile

type Collector struct {
	store   storage.Storage
	maxSize int64
}

func NewCollector(store storage.Storage, maxSize int64) *Collector {
	return &Collector{store: store, maxSize: maxSize}
}

// Collect writes every file of form to storage. Files go under folder,
// except step images which go under FolderDirections. If any file is
// rejected the files already written for this request are removed.
func (c *Collector) Collect(ctx context.Context, form *multipart.Form, folder string) (Batch, error) {
	batch := Batch{}
	if form == nil {
		return batch, nil
	}

	for field, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		stored, err := c.save(ctx, field, headers[0], folderFor(field, folder))
		if err != nil {
			c.Discard(ctx, batch)
			return nil, err
		}
		batch[field] = stored
	}
	return batch, nil
}

// Discard removes the files of a batch, used when the request fails after
// its files were stored.
func (c *Collector) Discard(ctx context.Context, batch Batch) {
	for _, f := range batch {
		_ = c.store.Delete(ctx, f.Key)
	}
}

func (c *Collector) save(ctx context.Context, field string, fh *multipart.FileHeader, folder string) (StoredFile, error) {
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return StoredFile{}, apperror.BadRequest("Only image files are allowed!")
	}
	if c.maxSize > 0 && fh.Size > c.maxSize {
		return StoredFile{}, apperror.BadRequest(fmt.Sprintf("File too large, maximum size is %d bytes", c.maxSize))
	}

	name := uuid.NewString() + extension(fh.Filename, contentType)
	key := path.Join(folder, name)

	f, err := fh.Open()
	if err != nil {
		return StoredFile{}, fmt.Errorf("open upload %s: %w", field, err)
	}
	defer f.Close()

	if err := c.store.Save(ctx, key, f, fh.Size, contentType); err != nil {
		return StoredFile{}, fmt.Errorf("store upload %s: %w", field, err)
	}
	return StoredFile{
		Field:       field,
		Name:        name,
		Key:         key,
		ContentType: contentType,
		Size:        fh.Size,
	}, nil
}

func folderFor(field, fallback string) string {
	if strings.HasPrefix(field, directionFieldPrefix) {
		return FolderDirections
	}
	return fallback
}

// extension keeps the client's file extension and falls back to the one
// registered for the declared content type.
func extension(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	mediaType, _, _ := strings.Cut(contentType, ";")
	if m := mimetype.Lookup(strings.TrimSpace(mediaType)); m != nil {
		return m.Extension()
	}
	return ""
}
