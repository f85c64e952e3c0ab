package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/recipebox/backend/internal/apperror"
	"github.com/recipebox/backend/internal/db"
	"github.com/recipebox/backend/internal/logging"
	"github.com/recipebox/backend/internal/model"
	"github.com/recipebox/backend/internal/upload"
)

const (
	msgCategoryNotFound  = "Category not found"
	msgCategoryDuplicate = "Category with the same name already exist"
)

type CategoryService struct {
	categories CategoryRepository
	images     *upload.Reconciler
	log        logging.Logger
}

func NewCategoryService(categories CategoryRepository, images *upload.Reconciler, log logging.Logger) *CategoryService {
	return &CategoryService{
		categories: categories,
		images:     images,
		log:        log,
	}
}

func (s *CategoryService) FindAll(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) FindByID(ctx context.Context, id string) (*model.Category, error) {
	category, err := s.categories.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, msgCategoryNotFound)
	}
	return category, nil
}

func (s *CategoryService) FindByName(ctx context.Context, name string) (*model.Category, error) {
	category, err := s.categories.GetCategoryByName(ctx, name)
	if err != nil {
		return nil, notFoundOr(err, msgCategoryNotFound)
	}
	return category, nil
}

func (s *CategoryService) Create(ctx context.Context, batch upload.Batch, req model.CreateCategoryRequest) (*model.Category, error) {
	name := strings.TrimSpace(req.Name)
	if err := s.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}

	image, err := s.images.Image(batch, upload.FieldImage, upload.ModeCreate, "Category image is required")
	if err != nil {
		return nil, err
	}

	category, err := s.categories.CreateCategory(ctx, &model.Category{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Image:       *image,
	})
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperror.Conflict(msgCategoryDuplicate)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.log.Info(ctx, "category created", "category_id", category.ID, "name", category.Name)
	return category, nil
}

// Update changes only the supplied fields. The image is replaced only when
// a new one was uploaded.
func (s *CategoryService) Update(ctx context.Context, id string, batch upload.Batch, req model.UpdateCategoryRequest) (*model.Category, error) {
	upd := model.CategoryUpdate{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := s.ensureNameFree(ctx, name, id); err != nil {
			return nil, err
		}
		upd.Name = &name
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		upd.Description = &description
	}

	image, err := s.images.Image(batch, upload.FieldImage, upload.ModeUpdate, "")
	if err != nil {
		return nil, err
	}
	upd.Image = image

	category, err := s.categories.UpdateCategory(ctx, id, upd)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperror.Conflict(msgCategoryDuplicate)
		}
		return nil, notFoundOr(err, msgCategoryNotFound)
	}
	return category, nil
}

// Delete removes the category, every recipe filed under it as main
// category, and its id from the secondary categories of other recipes. The
// three changes apply together or not at all.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if _, err := s.categories.GetCategoryByID(ctx, id); err != nil {
		return notFoundOr(err, msgCategoryNotFound)
	}

	deleted, pulled, err := s.categories.DeleteCategoryCascade(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return apperror.NotFound(msgCategoryNotFound)
		}
		return fmt.Errorf("delete category: %w", err)
	}

	s.log.Info(ctx, "category deleted", "category_id", id, "recipes_deleted", deleted, "recipes_updated", pulled)
	return nil
}

func (s *CategoryService) ensureNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.categories.GetCategoryByName(ctx, name)
	switch {
	case err == nil && existing.ID != selfID:
		return apperror.Conflict(msgCategoryDuplicate)
	case err == nil, errors.Is(err, db.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("lookup category: %w", err)
	}
}

// notFoundOr maps db.ErrNotFound to a NotFound error with msg and passes
// anything else through.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, db.ErrNotFound) {
		return apperror.NotFound(msg)
	}
	return err
}
