package model

import "time"

// ImageSlot is one stored image: the file name in the blob store and the URL
// it is served from.
type ImageSlot struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Image       ImageSlot `json:"image"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name" form:"name" validate:"required,max=100"`
	Description string `json:"description" form:"description" validate:"required"`
}

// UpdateCategoryRequest carries only the fields to change.
type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty" form:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty" form:"description" validate:"omitempty,min=1"`
}

// CategoryUpdate is what the repository applies; nil fields are left as is.
type CategoryUpdate struct {
	Name        *string
	Description *string
	Image       *ImageSlot
}
