package tools

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
	"github.com/reviewdesk/reviewdesk/internal/shared"
)

// Invalidator drops cached views keyed by tool slug or status.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service implements tool use cases.
type Service struct {
	repo        Repository
	invalidator Invalidator
	logger      *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, logger: slog.Default()}
}

// WithInvalidator bumps inv whenever a tool's slug or status changes.
func (s *Service) WithInvalidator(inv Invalidator, logger *slog.Logger) *Service {
	s.invalidator = inv
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *Service) invalidate(ctx context.Context, tool Tool) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Bump(ctx); err != nil {
		s.logger.Warn("invalidate tool caches", slog.Any("error", err), slog.String("tool_id", tool.ID.String()))
	}
}

// Create inserts a draft tool.
func (s *Service) Create(ctx context.Context, actor uuid.UUID, in CreateInput) (Tool, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Tool{}, httpx.Invalid("name", "is required")
	}
	slug, err := shared.RequireSlug("slug", in.Slug)
	if err != nil {
		return Tool{}, err
	}
	in.Slug = slug
	in.CategoryIDs = dedupe(in.CategoryIDs)
	return s.repo.Create(ctx, in, actor)
}

// Update applies the allow-listed fields of patch.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (Tool, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return Tool{}, httpx.Invalid("name", "is required")
		}
		patch.Name = &name
	}
	if patch.Slug != nil {
		slug, err := shared.RequireSlug("slug", *patch.Slug)
		if err != nil {
			return Tool{}, err
		}
		patch.Slug = &slug
	}
	for field, v := range map[string]*string{"websiteUrl": patch.WebsiteURL, "logoUrl": patch.LogoURL} {
		if v != nil && *v != "" {
			if err := httpx.ValidateVar(field, *v, "url"); err != nil {
				return Tool{}, err
			}
		}
	}
	tool, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return Tool{}, err
	}
	if patch.Slug != nil {
		s.invalidate(ctx, tool)
	}
	return tool, nil
}

// Publish makes the tool visible in the public directory.
func (s *Service) Publish(ctx context.Context, id uuid.UUID) (Tool, error) {
	return s.setStatus(ctx, id, shared.StatusPublished)
}

// Unpublish returns the tool to draft.
func (s *Service) Unpublish(ctx context.Context, id uuid.UUID) (Tool, error) {
	return s.setStatus(ctx, id, shared.StatusDraft)
}

func (s *Service) setStatus(ctx context.Context, id uuid.UUID, status shared.Status) (Tool, error) {
	tool, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return Tool{}, err
	}
	s.invalidate(ctx, tool)
	return tool, nil
}

// List returns tools matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Tool, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	filter.Category = strings.TrimSpace(filter.Category)
	return s.repo.List(ctx, filter)
}

// GetBySlug returns a tool visible under scope with its categories.
func (s *Service) GetBySlug(ctx context.Context, slug string, scope shared.ListScope) (Detail, error) {
	tool, err := s.repo.GetBySlug(ctx, slug, scope.Statuses())
	if err != nil {
		return Detail{}, err
	}
	cats, err := s.repo.Categories(ctx, tool.ID)
	if err != nil {
		return Detail{}, err
	}
	if cats == nil {
		cats = []CategoryRef{}
	}
	return Detail{Tool: tool, Categories: cats}, nil
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
