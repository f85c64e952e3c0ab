package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/recipebox/backend/internal/apperror"
	"github.com/recipebox/backend/internal/logging"
	"github.com/recipebox/backend/internal/model"
	"github.com/recipebox/backend/internal/service"
	"github.com/recipebox/backend/internal/upload"
	"github.com/recipebox/backend/internal/validation"
)

type CategoryHandler struct {
	svc      *service.CategoryService
	validate *validation.Validator
	uploads  *upload.Collector
	log      logging.Logger
}

func NewCategoryHandler(svc *service.CategoryService, validate *validation.Validator, uploads *upload.Collector, log logging.Logger) *CategoryHandler {
	return &CategoryHandler{svc: svc, validate: validate, uploads: uploads, log: log}
}

// GetCategories godoc
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {object} model.Response{data=[]model.Category}
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	categories, err := h.svc.FindAll(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	writeData(c, http.StatusOK, categories)
}

// GetCategory godoc
// @Summary Get category
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} model.Response{data=model.Category}
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, err := pathID(c, "id", "Category")
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	category, err := h.svc.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	writeData(c, http.StatusOK, category)
}

// CreateCategory godoc
// @Summary Create category
// @Tags categories
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Category name"
// @Param description formData string true "Category description"
// @Param image formData file true "Category image"
// @Success 201 {object} model.Response{data=model.Category}
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /api/v1/categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req model.CreateCategoryRequest
	if err := h.bind(c, &req); err != nil {
		writeError(c, h.log, err)
		return
	}

	batch, err := h.collect(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	category, err := h.svc.Create(c.Request.Context(), batch, req)
	if err != nil {
		h.uploads.Discard(c.Request.Context(), batch)
		writeError(c, h.log, err)
		return
	}
	writeData(c, http.StatusCreated, category)
}

// UpdateCategory godoc
// @Summary Update category
// @Description Only the supplied fields change. The image is replaced when a new one is uploaded.
// @Tags categories
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Param name formData string false "Category name"
// @Param description formData string false "Category description"
// @Param image formData file false "Category image"
// @Success 200 {object} model.Response{data=model.Category}
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, err := pathID(c, "id", "Category")
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	var req model.UpdateCategoryRequest
	if err := h.bind(c, &req); err != nil {
		writeError(c, h.log, err)
		return
	}

	batch, err := h.collect(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	category, err := h.svc.Update(c.Request.Context(), id, batch, req)
	if err != nil {
		h.uploads.Discard(c.Request.Context(), batch)
		writeError(c, h.log, err)
		return
	}
	writeData(c, http.StatusOK, category)
}

// DeleteCategory godoc
// @Summary Delete category
// @Description Also deletes the recipes filed under it and removes it from secondary categories.
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 200 {object} model.Response
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, err := pathID(c, "id", "Category")
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	writeMessage(c, "Category deleted successfully")
}

// bind decodes a JSON or multipart body into req and validates it.
func (h *CategoryHandler) bind(c *gin.Context, req any) error {
	var err error
	if isMultipart(c) {
		err = c.ShouldBindWith(req, binding.FormMultipart)
	} else {
		err = c.ShouldBindJSON(req)
	}
	if err != nil {
		return apperror.BadRequest("Invalid request body")
	}
	return h.validate.Struct(req)
}

func (h *CategoryHandler) collect(c *gin.Context) (upload.Batch, error) {
	if !isMultipart(c) {
		return upload.Batch{}, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperror.BadRequest("Invalid multipart form")
	}
	return h.uploads.Collect(c.Request.Context(), form, upload.FolderCategories)
}
