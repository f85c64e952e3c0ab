package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/recipebox/backend/internal/apperror"
	"github.com/recipebox/backend/internal/logging"
	"github.com/recipebox/backend/internal/model"
	"github.com/recipebox/backend/internal/service"
	"github.com/recipebox/backend/internal/upload"
	"github.com/recipebox/backend/internal/validation"
)

type RecipeHandler struct {
	svc      *service.RecipeService
	validate *validation.Validator
	uploads  *upload.Collector
	log      logging.Logger
}

func NewRecipeHandler(svc *service.RecipeService, validate *validation.Validator, uploads *upload.Collector, log logging.Logger) *RecipeHandler {
	return &RecipeHandler{svc: svc, validate: validate, uploads: uploads, log: log}
}

// GetRecipes godoc
// @Summary List recipes
// @Description Newest first. search matches title and description, category matches the main category.
// @Tags recipes
// @Produce json
// @Param search query string false "Text to search for"
// @Param category query string false "Main category ID"
// @Success 200 {object} model.Response{data=[]model.Recipe}
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/recipes [get]
func (h *RecipeHandler) GetRecipes(c *gin.Context) {
	filters := model.RecipeFilters{
		Search:   strings.TrimSpace(c.Query("search")),
		Category: strings.TrimSpace(c.Query("category")),
	}
	if filters.Category != "" && !isUUID(filters.Category) {
		writeError(c, h.log, apperror.BadRequest("Invalid Category ID"))
		return
	}

	recipes, err := h.svc.FindAll(c.Request.Context(), filters)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	writeData(c, http.StatusOK, recipes)
}

// GetRecipe godoc
// @Summary Get recipe detail
// @Description Returns the recipe and a few other recipes to suggest.
// @Tags recipes
// @Produce json
// @Param id path string true "Recipe ID"
// @Success 200 {object} model.Response{data=model.RecipeDetail}
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/recipes/{id} [get]
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, err := pathID(c, "id", "Recipe")
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	detail, err := h.svc.Detail(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	writeData(c, http.StatusOK, detail)
}

// GetRecipesByCategory godoc
// @Summary List recipes of a category
// @Tags recipes
// @Produce json
// @Param categoryId path string true "Category ID"
// @Success 200 {object} model.Response{data=[]model.Recipe}
// @Failure 400 {object} model.ErrorResponse
// @Router /api/v1/recipes/category/{categoryId} [get]
func (h *RecipeHandler) GetRecipesByCategory(c *gin.Context) {
	categoryID, err := pathID(c, "categoryId", "Category")
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	recipes, err := h.svc.FindByCategory(c.Request.Context(), categoryID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	writeData(c, http.StatusOK, recipes)
}

// CreateRecipe godoc
// @Summary Create recipe
// @Description Multipart form. mainCategory, secondaryCategories, nutrition, ingredients and directions are JSON strings. Step images go in directionImage_<order>.
// @Tags recipes
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param mainCategory formData string true "Main category ID"
// @Param ingredients formData string true "Ingredient sections as JSON"
// @Param directions formData string true "Direction steps as JSON"
// @Param mainImage formData file true "Main image"
// @Success 201 {object} model.Response{data=model.Recipe}
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /api/v1/recipes [post]
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	h.save(c, "", http.StatusCreated)
}

// UpdateRecipe godoc
// @Summary Update recipe
// @Description Same body as create. The main image and step images are optional; steps without a new upload keep their image.
// @Tags recipes
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Recipe ID"
// @Success 200 {object} model.Response{data=model.Recipe}
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /api/v1/recipes/{id} [put]
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, err := pathID(c, "id", "Recipe")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	h.save(c, id, http.StatusOK)
}

// DeleteRecipe godoc
// @Summary Delete recipe
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Recipe ID"
// @Success 200 {object} model.Response
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/recipes/{id} [delete]
func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, err := pathID(c, "id", "Recipe")
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	writeMessage(c, "Recipe deleted successfully")
}

// save runs create (id empty) or update. Files are written only after the
// body validated, and removed again if the service rejects the recipe.
func (h *RecipeHandler) save(c *gin.Context, id string, status int) {
	ctx := c.Request.Context()
	userID := ""
	if user := GetAuthUser(c); user != nil {
		userID = user.ID
	}

	req, form, err := bindRecipe(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(c, h.log, err)
		return
	}

	batch, err := h.uploads.Collect(ctx, form, upload.FolderRecipes)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	var recipe *model.Recipe
	if id == "" {
		recipe, err = h.svc.Create(ctx, userID, batch, req)
	} else {
		recipe, err = h.svc.Update(ctx, userID, id, batch, req)
	}
	if err != nil {
		h.uploads.Discard(ctx, batch)
		writeError(c, h.log, err)
		return
	}
	writeData(c, status, recipe)
}
