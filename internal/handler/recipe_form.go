package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/recipebox/backend/internal/apperror"
	"github.com/recipebox/backend/internal/model"
)

// categoryRef is a category reference as clients send it: a bare id, or a
// category object carrying "id" or "_id".
type categoryRef string

func (r *categoryRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			ID      string `json:"id"`
			ShortID string `json:"_id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if obj.ID != "" {
			*r = categoryRef(obj.ID)
		} else {
			*r = categoryRef(obj.ShortID)
		}
		return nil
	}

	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*r = categoryRef(id)
	return nil
}

// recipeBody is the JSON shape of a recipe create or update.
type recipeBody struct {
	Title               string                    `json:"title"`
	Description         *string                   `json:"description"`
	MainCategory        categoryRef               `json:"mainCategory"`
	SecondaryCategories []categoryRef             `json:"secondaryCategories"`
	PrepTime            *int                      `json:"prepTime"`
	CookTime            *int                      `json:"cookTime"`
	IsVegan             *bool                     `json:"isVegan"`
	Nutrition           *model.Nutrition          `json:"nutrition"`
	Ingredients         []model.IngredientSection `json:"ingredients"`
	Directions          []model.DirectionStep     `json:"directions"`
}

func (b recipeBody) request() model.RecipeRequest {
	req := model.RecipeRequest{
		Title:        strings.TrimSpace(b.Title),
		Description:  b.Description,
		MainCategory: strings.TrimSpace(string(b.MainCategory)),
		PrepTime:     b.PrepTime,
		CookTime:     b.CookTime,
		IsVegan:      b.IsVegan,
		Nutrition:    b.Nutrition,
		Ingredients:  b.Ingredients,
		Directions:   b.Directions,
	}
	if b.SecondaryCategories != nil {
		req.SecondaryCategories = make([]string, 0, len(b.SecondaryCategories))
		for _, ref := range b.SecondaryCategories {
			req.SecondaryCategories = append(req.SecondaryCategories, strings.TrimSpace(string(ref)))
		}
	}
	return req
}

// bindRecipe decodes the recipe from a JSON body or from a multipart form
// whose structured fields are JSON strings. The multipart form, if any, is
// returned so its files can be collected.
func bindRecipe(c *gin.Context) (model.RecipeRequest, *multipart.Form, error) {
	if !isMultipart(c) {
		var body recipeBody
		if err := c.ShouldBindJSON(&body); err != nil {
			return model.RecipeRequest{}, nil, apperror.BadRequest("Invalid request body")
		}
		return body.request(), nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return model.RecipeRequest{}, nil, apperror.BadRequest("Invalid multipart form")
	}
	body, err := decodeRecipeForm(form.Value)
	if err != nil {
		return model.RecipeRequest{}, nil, err
	}
	return body.request(), form, nil
}

func decodeRecipeForm(values map[string][]string) (recipeBody, error) {
	var body recipeBody
	var fields []apperror.FieldError
	fail := func(field, msg string) {
		fields = append(fields, apperror.FieldError{Field: field, Message: msg})
	}

	if v, ok := values["title"]; ok && len(v) > 0 {
		body.Title = strings.TrimSpace(v[0])
	}
	if v, ok := lookup(values, "description"); ok {
		body.Description = &v
	}

	if v, ok := lookup(values, "mainCategory"); ok {
		ref, err := parseRef(v)
		if err != nil {
			fail("mainCategory", "mainCategory must be an ID or a category")
		}
		body.MainCategory = ref
	}

	if raw, ok := values["secondaryCategories"]; ok {
		refs, err := parseRefs(raw)
		if err != nil {
			fail("secondaryCategories", "secondaryCategories must be an array")
		}
		body.SecondaryCategories = refs
	}

	for _, f := range []struct {
		name string
		dst  **int
	}{{"prepTime", &body.PrepTime}, {"cookTime", &body.CookTime}} {
		v, ok := lookup(values, f.name)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			fail(f.name, fmt.Sprintf("%s must be a number", f.name))
			continue
		}
		*f.dst = &n
	}

	if v, ok := lookup(values, "isVegan"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fail("isVegan", "isVegan must be a boolean")
		} else {
			body.IsVegan = &b
		}
	}

	jsonFields := []struct {
		name string
		dst  any
	}{
		{"nutrition", &body.Nutrition},
		{"ingredients", &body.Ingredients},
		{"directions", &body.Directions},
	}
	for _, f := range jsonFields {
		v, ok := lookup(values, f.name)
		if !ok || v == "" {
			continue
		}
		if err := json.Unmarshal([]byte(v), f.dst); err != nil {
			fail(f.name, fmt.Sprintf("%s must be valid JSON", f.name))
		}
	}

	if len(fields) > 0 {
		return recipeBody{}, apperror.Validation(fields)
	}
	return body, nil
}

// parseRef reads one category reference from a form value: JSON (string or
// object) or a bare id. An empty value or JSON null yields no reference.
func parseRef(v string) (categoryRef, error) {
	v = strings.TrimSpace(v)
	if isNull(v) {
		return "", nil
	}
	if strings.HasPrefix(v, "{") || strings.HasPrefix(v, `"`) {
		var ref categoryRef
		err := json.Unmarshal([]byte(v), &ref)
		return ref, err
	}
	return categoryRef(v), nil
}

// parseRefs accepts either one JSON array value or repeated form values.
// A lone null or empty value leaves the field unset, as it does in JSON.
func parseRefs(raw []string) ([]categoryRef, error) {
	if len(raw) == 1 && isNull(strings.TrimSpace(raw[0])) {
		return nil, nil
	}
	if len(raw) == 1 && strings.HasPrefix(strings.TrimSpace(raw[0]), "[") {
		var refs []categoryRef
		if err := json.Unmarshal([]byte(raw[0]), &refs); err != nil {
			return nil, err
		}
		return refs, nil
	}

	refs := make([]categoryRef, 0, len(raw))
	for _, v := range raw {
		if isNull(strings.TrimSpace(v)) {
			continue
		}
		ref, err := parseRef(v)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// lookup returns the first value of key. A JSON null counts as absent.
func lookup(values map[string][]string, key string) (string, bool) {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	trimmed := strings.TrimSpace(v[0])
	if trimmed == "null" {
		return "", false
	}
	return trimmed, true
}

func isNull(v string) bool {
	return v == "" || v == "null"
}
