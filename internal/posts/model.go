package posts

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
	"github.com/reviewdesk/reviewdesk/internal/shared"
)

// PageSize is the fixed page length of post listings.
const PageSize = 10

// Post is an editorial article, guide or roundup.
type Post struct {
	ID            uuid.UUID     `json:"id"`
	Title         string        `json:"title"`
	Slug          string        `json:"slug"`
	Excerpt       string        `json:"excerpt"`
	Content       string        `json:"content"`
	CoverImageURL string        `json:"coverImageUrl"`
	Status        shared.Status `json:"status"`
	PostType      string        `json:"postType"`
	PublishedAt   *time.Time    `json:"publishedAt"`
	AuthorID      *uuid.UUID    `json:"authorId"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Tag labels posts.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}

// TagRef is a tag attached to a post.
type TagRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// ToolRef is a tool featured in a post.
type ToolRef struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	SortOrder int       `json:"sortOrder"`
}

// Detail is a post with its tags and featured tools.
type Detail struct {
	Post
	Tags  []TagRef  `json:"tags"`
	Tools []ToolRef `json:"tools"`
}

// Page is one page of a post listing.
type Page struct {
	shared.Pagination
	Items []Post `json:"items"`
}

// CreateInput carries the fields of a new post.
type CreateInput struct {
	Title         string `json:"title" validate:"required,max=255"`
	Slug          string `json:"slug" validate:"required,max=180"`
	Excerpt       string `json:"excerpt" validate:"max=2000"`
	Content       string `json:"content" validate:"max=200000"`
	CoverImageURL string `json:"coverImageUrl" validate:"omitempty,url,max=1024"`
	PostType      string `json:"postType" validate:"required,max=80"`
}

// Patch lists the updatable post fields. Status and publishedAt change only
// through Publish and Unpublish.
type Patch struct {
	Title         *string `json:"title" validate:"omitnil,min=1,max=255"`
	Slug          *string `json:"slug" validate:"omitnil,min=1,max=180"`
	Excerpt       *string `json:"excerpt" validate:"omitnil,max=2000"`
	Content       *string `json:"content" validate:"omitnil,max=200000"`
	CoverImageURL *string `json:"coverImageUrl" validate:"omitnil,max=1024"`
	PostType      *string `json:"postType" validate:"omitnil,min=1,max=80"`
}

// TagInput carries the fields of a new tag.
type TagInput struct {
	Name string `json:"name" validate:"required,max=180"`
	Slug string `json:"slug" validate:"required,max=180"`
}

// ToolLink places a tool in a post. SortOrder defaults to the list index.
type ToolLink struct {
	ToolID    uuid.UUID `json:"toolId" validate:"required"`
	SortOrder *int      `json:"sortOrder" validate:"omitnil,gte=0"`
}

// ListFilter narrows List.
type ListFilter struct {
	Type  string
	Tag   string
	Query string
	Page  int
	Scope shared.ListScope
}

var (
	// ErrNotFound is returned when the post does not exist or is not visible.
	ErrNotFound = httpx.NotFound("post")
	// ErrSlugTaken is returned on a post slug collision.
	ErrSlugTaken = fmt.Errorf("post slug already exists: %w", httpx.ErrDuplicate)
	// ErrTagSlugTaken is returned on a tag slug collision.
	ErrTagSlugTaken = fmt.Errorf("tag slug already exists: %w", httpx.ErrDuplicate)
	// ErrUnknownTag is returned when tagIds references a missing tag.
	ErrUnknownTag = fmt.Errorf("tagIds references an unknown tag: %w", httpx.ErrValidation)
	// ErrUnknownTool is returned when tools references a missing tool.
	ErrUnknownTool = fmt.Errorf("tools references an unknown tool: %w", httpx.ErrValidation)
)
