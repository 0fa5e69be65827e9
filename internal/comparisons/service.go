package comparisons

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
	"github.com/reviewdesk/reviewdesk/internal/shared"
)

// Service implements comparison use cases.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the comparisons in scope.
func (s *Service) List(ctx context.Context, scope shared.ListScope) ([]Comparison, error) {
	return s.repo.List(ctx, scope.Statuses())
}

// GetBySlug returns a published comparison with the published tools it links.
func (s *Service) GetBySlug(ctx context.Context, slug string) (Detail, error) {
	c, err := s.repo.GetBySlug(ctx, slug, shared.ScopePublished.Statuses())
	if err != nil {
		return Detail{}, err
	}
	tools, err := s.repo.PublishedTools(ctx, c.ID)
	if err != nil {
		return Detail{}, err
	}
	if tools == nil {
		tools = []ToolSummary{}
	}
	return Detail{Comparison: c, Tools: tools}, nil
}

// Create inserts a draft comparison owned by actor.
func (s *Service) Create(ctx context.Context, actor uuid.UUID, in CreateInput) (Comparison, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return Comparison{}, httpx.Invalid("title", "is required")
	}
	slug, err := shared.RequireSlug("slug", in.Slug)
	if err != nil {
		return Comparison{}, err
	}
	in.Slug = slug
	in.ToolIDs = dedupe(in.ToolIDs)
	return s.repo.Create(ctx, in, actor)
}

// Update applies the allow-listed fields of patch.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (Comparison, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return Comparison{}, httpx.Invalid("title", "is required")
		}
		patch.Title = &title
	}
	if patch.Slug != nil {
		slug, err := shared.RequireSlug("slug", *patch.Slug)
		if err != nil {
			return Comparison{}, err
		}
		patch.Slug = &slug
	}
	if patch.ToolIDs != nil {
		ids := dedupe(*patch.ToolIDs)
		patch.ToolIDs = &ids
	}
	return s.repo.Update(ctx, id, patch)
}

// Publish makes the comparison publicly readable.
func (s *Service) Publish(ctx context.Context, id uuid.UUID) (Comparison, error) {
	return s.repo.SetStatus(ctx, id, shared.StatusPublished)
}

// Unpublish returns the comparison to draft.
func (s *Service) Unpublish(ctx context.Context, id uuid.UUID) (Comparison, error) {
	return s.repo.SetStatus(ctx, id, shared.StatusDraft)
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
