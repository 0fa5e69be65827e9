package reviews

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
	"github.com/reviewdesk/reviewdesk/internal/shared"
)

// Service implements review submission and moderation.
type Service struct {
	repo  Repository
	audit shared.AuditRecorder
}

// NewService constructs a Service. A nil audit discards entries.
func NewService(repo Repository, audit shared.AuditRecorder) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	return &Service{repo: repo, audit: audit}
}

// Submit records a pending review of toolID by author.
func (s *Service) Submit(ctx context.Context, author, toolID uuid.UUID, in SubmitInput) (Review, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if in.Title == "" {
		return Review{}, httpx.Invalid("title", "is required")
	}
	if in.Content == "" {
		return Review{}, httpx.Invalid("content", "is required")
	}
	if in.Rating == nil {
		return Review{}, httpx.Invalid("rating", "is required")
	}
	if *in.Rating < 1 || *in.Rating > 5 {
		return Review{}, httpx.Invalid("rating", "must be between 1 and 5")
	}
	return s.repo.Create(ctx, toolID, author, in)
}

// Queue lists reviews in the given moderation state.
func (s *Service) Queue(ctx context.Context, status Status) ([]Review, error) {
	return s.repo.ListByStatus(ctx, status)
}

// Approved lists the approved reviews of a tool.
func (s *Service) Approved(ctx context.Context, toolID uuid.UUID) ([]Review, error) {
	return s.repo.ListApprovedForTool(ctx, toolID)
}

// Approve marks the review approved.
func (s *Service) Approve(ctx context.Context, actor, id uuid.UUID) (Review, error) {
	return s.moderate(ctx, actor, id, StatusApproved)
}

// Reject marks the review rejected.
func (s *Service) Reject(ctx context.Context, actor, id uuid.UUID) (Review, error) {
	return s.moderate(ctx, actor, id, StatusRejected)
}

func (s *Service) moderate(ctx context.Context, actor, id uuid.UUID, status Status) (Review, error) {
	rev, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return Review{}, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   "reviews." + string(status),
		Entity:   "review",
		EntityID: id.String(),
		Meta:     map[string]any{"toolId": rev.ToolID.String()},
	})
	return rev, nil
}
