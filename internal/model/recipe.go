package model

import "time"

type Nutrition struct {
	Calories     float64 `json:"calories"`
	Carbohydrate float64 `json:"carbohydrate"`
	Cholesterol  float64 `json:"cholesterol"`
	Protein      float64 `json:"protein"`
	TotalFat     float64 `json:"totalFat"`
}

type IngredientSection struct {
	Title string   `json:"title" validate:"notblank"`
	Items []string `json:"items" validate:"required,min=1,dive,notblank"`
}

type Ingredients struct {
	Sections []IngredientSection `json:"sections"`
}

// DirectionStep is one ordered step. Order is the key uploaded step images
// are matched on.
type DirectionStep struct {
	Order       int        `json:"order" validate:"min=1"`
	Title       string     `json:"title" validate:"notblank"`
	Description string     `json:"description" validate:"notblank"`
	Image       *ImageSlot `json:"image,omitempty" validate:"-"`
}

type Author struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Avatar *ImageSlot `json:"avatar,omitempty"`
}

type Recipe struct {
	ID                   string          `json:"id"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	MainCategoryID       string          `json:"mainCategoryId"`
	SecondaryCategoryIDs []string        `json:"secondaryCategoryIds"`
	AuthorID             string          `json:"authorId"`
	PublishDate          time.Time       `json:"publishDate"`
	PrepTime             int             `json:"prepTime"`
	CookTime             int             `json:"cookTime"`
	IsVegan              bool            `json:"isVegan"`
	MainImage            ImageSlot       `json:"mainImage"`
	Nutrition            *Nutrition      `json:"nutrition,omitempty"`
	Ingredients          Ingredients     `json:"ingredients"`
	Directions           []DirectionStep `json:"directions"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`

	// Populated on read.
	MainCategory        *Category  `json:"mainCategory,omitempty"`
	SecondaryCategories []Category `json:"secondaryCategories"`
	Author              *Author    `json:"author,omitempty"`
}

// RecipeRequest is the decoded body of a recipe create or update. Optional
// fields are pointers so an update can leave them untouched.
type RecipeRequest struct {
	Title               string              `json:"title" validate:"notblank,max=100"`
	Description         *string             `json:"description,omitempty" validate:"omitempty,max=2000"`
	MainCategory        string              `json:"mainCategory" validate:"required,uuid"`
	SecondaryCategories []string            `json:"secondaryCategories,omitempty" validate:"omitempty,dive,uuid"`
	PrepTime            *int                `json:"prepTime,omitempty" validate:"omitempty,min=0"`
	CookTime            *int                `json:"cookTime,omitempty" validate:"omitempty,min=0"`
	IsVegan             *bool               `json:"isVegan,omitempty"`
	Nutrition           *Nutrition          `json:"nutrition,omitempty"`
	Ingredients         []IngredientSection `json:"ingredients" validate:"required,min=1,dive"`
	Directions          []DirectionStep     `json:"directions,omitempty" validate:"omitempty,min=1,dive"`
}

type RecipeFilters struct {
	Search   string
	Category string
}

// RecipeUpdate is what the repository applies; nil fields are left as is.
type RecipeUpdate struct {
	Title                *string
	Description          *string
	MainCategoryID       *string
	SecondaryCategoryIDs []string
	PrepTime             *int
	CookTime             *int
	IsVegan              *bool
	MainImage            *ImageSlot
	Nutrition            *Nutrition
	Ingredients          *Ingredients
	Directions           []DirectionStep
}

type RecipeDetail struct {
	Recipe       *Recipe  `json:"recipe"`
	OtherRecipes []Recipe `json:"otherRecipes"`
}
