package tools

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
	"github.com/reviewdesk/reviewdesk/internal/shared"
)

// Tool is a reviewed software product.
type Tool struct {
	ID               uuid.UUID     `json:"id"`
	Name             string        `json:"name"`
	Slug             string        `json:"slug"`
	WebsiteURL       string        `json:"websiteUrl"`
	Description      string        `json:"description"`
	StartingPrice    *float64      `json:"startingPrice"`
	PricingModel     string        `json:"pricingModel"`
	FreeTrial        bool          `json:"freeTrial"`
	LogoURL          string        `json:"logoUrl"`
	FeatureScore     *float64      `json:"featureScore"`
	PricingScore     *float64      `json:"pricingScore"`
	UsabilityScore   *float64      `json:"usabilityScore"`
	IntegrationScore *float64      `json:"integrationScore"`
	UserScore        *float64      `json:"userScore"`
	OverallScore     *float64      `json:"overallScore"`
	Status           shared.Status `json:"status"`
	CreatedBy        *uuid.UUID    `json:"createdBy"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// CategoryRef is a category attached to a tool.
type CategoryRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// Detail is a tool with its categories.
type Detail struct {
	Tool
	Categories []CategoryRef `json:"categories"`
}

// CreateInput carries the fields of a new tool.
type CreateInput struct {
	Name          string      `json:"name" validate:"required,max=180"`
	Slug          string      `json:"slug" validate:"required,max=180"`
	WebsiteURL    string      `json:"websiteUrl" validate:"omitempty,url,max=1024"`
	Description   string      `json:"description" validate:"max=20000"`
	StartingPrice *float64    `json:"startingPrice" validate:"omitnil,gte=0"`
	PricingModel  string      `json:"pricingModel" validate:"max=80"`
	FreeTrial     bool        `json:"freeTrial"`
	LogoURL       string      `json:"logoUrl" validate:"omitempty,url,max=1024"`
	CategoryIDs   []uuid.UUID `json:"categoryIds" validate:"max=50"`
}

// Patch lists the updatable tool fields. Status is changed only through
// Publish and Unpublish.
type Patch struct {
	Name             *string  `json:"name" validate:"omitnil,min=1,max=180"`
	Slug             *string  `json:"slug" validate:"omitnil,min=1,max=180"`
	WebsiteURL       *string  `json:"websiteUrl" validate:"omitnil,max=1024"`
	Description      *string  `json:"description" validate:"omitnil,max=20000"`
	StartingPrice    *float64 `json:"startingPrice" validate:"omitnil,gte=0"`
	PricingModel     *string  `json:"pricingModel" validate:"omitnil,max=80"`
	FreeTrial        *bool    `json:"freeTrial"`
	LogoURL          *string  `json:"logoUrl" validate:"omitnil,max=1024"`
	FeatureScore     *float64 `json:"featureScore" validate:"omitnil,gte=0,lte=10"`
	PricingScore     *float64 `json:"pricingScore" validate:"omitnil,gte=0,lte=10"`
	UsabilityScore   *float64 `json:"usabilityScore" validate:"omitnil,gte=0,lte=10"`
	IntegrationScore *float64 `json:"integrationScore" validate:"omitnil,gte=0,lte=10"`
	UserScore        *float64 `json:"userScore" validate:"omitnil,gte=0,lte=10"`
	OverallScore     *float64 `json:"overallScore" validate:"omitnil,gte=0,lte=10"`
}

// ListFilter narrows List.
type ListFilter struct {
	Query    string
	Category string
	Scope    shared.ListScope
}

var (
	// ErrNotFound is returned when the tool does not exist or is not visible.
	ErrNotFound = httpx.NotFound("tool")
	// ErrSlugTaken is returned on a slug collision.
	ErrSlugTaken = fmt.Errorf("tool slug already exists: %w", httpx.ErrDuplicate)
	// ErrUnknownCategory is returned when categoryIds references a missing category.
	ErrUnknownCategory = httpx.Invalid("categoryIds", "references an unknown category")
)
