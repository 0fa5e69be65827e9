package comparisons

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
	"github.com/reviewdesk/reviewdesk/internal/shared"
)

// Comparison is a side-by-side page for a set of tools.
type Comparison struct {
	ID        uuid.UUID     `json:"id"`
	Title     string        `json:"title"`
	Slug      string        `json:"slug"`
	Status    shared.Status `json:"status"`
	CreatedBy *uuid.UUID    `json:"createdBy"`
	CreatedAt time.Time     `json:"createdAt"`
	ToolIDs   []uuid.UUID   `json:"toolIds"`
}

// ToolSummary is the slice of a tool shown on a comparison page.
type ToolSummary struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	LogoURL       string    `json:"logoUrl"`
	StartingPrice *float64  `json:"startingPrice"`
	PricingModel  string    `json:"pricingModel"`
	FreeTrial     bool      `json:"freeTrial"`
	OverallScore  *float64  `json:"overallScore"`
}

// Detail is a comparison with its published tools.
type Detail struct {
	Comparison
	Tools []ToolSummary `json:"tools"`
}

// CreateInput carries the fields of a new comparison.
type CreateInput struct {
	Title   string      `json:"title" validate:"required,max=255"`
	Slug    string      `json:"slug" validate:"required,max=180"`
	ToolIDs []uuid.UUID `json:"toolIds" validate:"max=20"`
}

// Patch lists the updatable fields. A non-nil ToolIDs replaces the tool set.
type Patch struct {
	Title   *string      `json:"title" validate:"omitnil,min=1,max=255"`
	Slug    *string      `json:"slug" validate:"omitnil,min=1,max=180"`
	ToolIDs *[]uuid.UUID `json:"toolIds" validate:"omitnil,max=20"`
}

var (
	// ErrNotFound is returned when the comparison does not exist or is not visible.
	ErrNotFound = httpx.NotFound("comparison")
	// ErrSlugTaken is returned on a slug collision.
	ErrSlugTaken = fmt.Errorf("comparison slug already exists: %w", httpx.ErrDuplicate)
	// ErrUnknownTool is returned when toolIds references a missing tool.
	ErrUnknownTool = fmt.Errorf("toolIds references an unknown tool: %w", httpx.ErrValidation)
)
