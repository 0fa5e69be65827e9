package posts

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
	"github.com/reviewdesk/reviewdesk/internal/shared"
)

// Service implements post and tag use cases.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock overrides the publication clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ListTags returns every tag.
func (s *Service) ListTags(ctx context.Context) ([]Tag, error) {
	return s.repo.ListTags(ctx)
}

// CreateTag inserts a tag.
func (s *Service) CreateTag(ctx context.Context, in TagInput) (Tag, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Tag{}, httpx.Invalid("name", "is required")
	}
	slug, err := shared.RequireSlug("slug", in.Slug)
	if err != nil {
		return Tag{}, err
	}
	in.Slug = slug
	return s.repo.CreateTag(ctx, in)
}

// List returns one page of posts, newest publication first.
func (s *Service) List(ctx context.Context, filter ListFilter) (Page, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Page > shared.MaxPage(PageSize) {
		return Page{}, httpx.Invalid("page", "is out of range")
	}
	filter.Query = strings.TrimSpace(filter.Query)
	filter.Type = strings.TrimSpace(filter.Type)
	filter.Tag = strings.TrimSpace(filter.Tag)

	offset := shared.NewPagination(filter.Page, PageSize, 0).Offset()
	items, total, err := s.repo.List(ctx, filter, PageSize, offset)
	if err != nil {
		return Page{}, err
	}
	if items == nil {
		items = []Post{}
	}
	return Page{Pagination: shared.NewPagination(filter.Page, PageSize, total), Items: items}, nil
}

// GetBySlug returns a post visible under scope with tags and tools.
func (s *Service) GetBySlug(ctx context.Context, slug string, scope shared.ListScope) (Detail, error) {
	post, err := s.repo.GetBySlug(ctx, slug, scope.Statuses())
	if err != nil {
		return Detail{}, err
	}
	tags, err := s.repo.Tags(ctx, post.ID)
	if err != nil {
		return Detail{}, err
	}
	tools, err := s.repo.Tools(ctx, post.ID)
	if err != nil {
		return Detail{}, err
	}
	if tags == nil {
		tags = []TagRef{}
	}
	if tools == nil {
		tools = []ToolRef{}
	}
	return Detail{Post: post, Tags: tags, Tools: tools}, nil
}

// Create inserts a draft post authored by actor.
func (s *Service) Create(ctx context.Context, actor uuid.UUID, in CreateInput) (Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.PostType = strings.TrimSpace(in.PostType)
	fields := httpx.FieldErrors{}
	if in.Title == "" {
		fields["title"] = "is required"
	}
	if in.PostType == "" {
		fields["postType"] = "is required"
	}
	slug, err := shared.RequireSlug("slug", in.Slug)
	if err != nil {
		fields["slug"] = "must contain letters or digits"
	}
	if len(fields) > 0 {
		return Post{}, fields
	}
	in.Slug = slug
	return s.repo.Create(ctx, in, actor)
}

// Update applies the allow-listed fields of patch.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (Post, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return Post{}, httpx.Invalid("title", "is required")
		}
		patch.Title = &title
	}
	if patch.Slug != nil {
		slug, err := shared.RequireSlug("slug", *patch.Slug)
		if err != nil {
			return Post{}, err
		}
		patch.Slug = &slug
	}
	if patch.CoverImageURL != nil && *patch.CoverImageURL != "" {
		if err := httpx.ValidateVar("coverImageUrl", *patch.CoverImageURL, "url"); err != nil {
			return Post{}, err
		}
	}
	return s.repo.Update(ctx, id, patch)
}

// Publish sets the post published and stamps publishedAt.
func (s *Service) Publish(ctx context.Context, id uuid.UUID) (Post, error) {
	return s.repo.SetPublication(ctx, id, shared.Publish(s.now()))
}

// Unpublish returns the post to draft and clears publishedAt.
func (s *Service) Unpublish(ctx context.Context, id uuid.UUID) (Post, error) {
	return s.repo.SetPublication(ctx, id, shared.Unpublish())
}

// AttachTags adds tags to a post, ignoring ones already attached.
func (s *Service) AttachTags(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error {
	if len(tagIDs) == 0 {
		return httpx.Invalid("tagIds", "is required")
	}
	return s.repo.AttachTags(ctx, postID, tagIDs)
}

// ReplaceTools sets the featured tool list of a post.
func (s *Service) ReplaceTools(ctx context.Context, postID uuid.UUID, links []ToolLink) error {
	if len(links) == 0 {
		return httpx.Invalid("tools", "is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(links))
	for _, l := range links {
		if _, ok := seen[l.ToolID]; ok {
			return httpx.Invalid("tools", "lists a tool more than once")
		}
		seen[l.ToolID] = struct{}{}
	}
	return s.repo.ReplaceTools(ctx, postID, links)
}
