package categories

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
)

// Category groups tools in the public directory.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateInput carries the fields of a new category.
type CreateInput struct {
	Name string `json:"name" validate:"required,max=180"`
	Slug string `json:"slug" validate:"required,max=180"`
}

// Patch lists the updatable fields. Nil fields are left untouched.
type Patch struct {
	Name *string `json:"name" validate:"omitnil,min=1,max=180"`
	Slug *string `json:"slug" validate:"omitnil,min=1,max=180"`
}

var (
	// ErrNotFound is returned when the category does not exist.
	ErrNotFound = httpx.NotFound("category")
	// ErrSlugTaken is returned by the repository on a slug collision.
	ErrSlugTaken = fmt.Errorf("category slug already exists: %w", httpx.ErrDuplicate)
)
