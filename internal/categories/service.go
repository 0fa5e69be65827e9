package categories

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
	"github.com/reviewdesk/reviewdesk/internal/shared"
)

// Service implements category use cases.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every category ordered by name.
func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx)
}

// Create inserts a category. A slug collision returns *httpx.ConflictError
// carrying the category that already owns the slug.
func (s *Service) Create(ctx context.Context, in CreateInput) (Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Category{}, httpx.Invalid("name", "is required")
	}
	slug, err := shared.RequireSlug("slug", in.Slug)
	if err != nil {
		return Category{}, err
	}
	in.Slug = slug

	created, err := s.repo.Create(ctx, in)
	if errors.Is(err, ErrSlugTaken) {
		existing, getErr := s.repo.GetBySlug(ctx, slug)
		if getErr != nil {
			return Category{}, err
		}
		return Category{}, &httpx.ConflictError{Detail: ErrSlugTaken.Error(), Existing: existing}
	}
	return created, err
}

// Update applies the allow-listed fields of patch.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (Category, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return Category{}, httpx.Invalid("name", "is required")
		}
		patch.Name = &name
	}
	if patch.Slug != nil {
		slug, err := shared.RequireSlug("slug", *patch.Slug)
		if err != nil {
			return Category{}, err
		}
		patch.Slug = &slug
	}
	return s.repo.Update(ctx, id, patch)
}
