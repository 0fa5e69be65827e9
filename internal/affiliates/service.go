package affiliates

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/platform/cache"
	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
)

// Service implements affiliate program, link and redirect use cases.
type Service struct {
	repo    Repository
	targets *cache.Versioned
	logger  *slog.Logger
}

// NewService constructs a Service. targets caches /go lookups and may be nil.
func NewService(repo Repository, targets *cache.Versioned) *Service {
	return &Service{repo: repo, targets: targets, logger: slog.Default()}
}

// WithLogger sets the logger used for cache failures.
func (s *Service) WithLogger(logger *slog.Logger) *Service {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// ListPrograms returns every program.
func (s *Service) ListPrograms(ctx context.Context) ([]Program, error) {
	return s.repo.ListPrograms(ctx)
}

// CreateProgram registers a program. Networks are stored lower-case so sync
// jobs can match them.
func (s *Service) CreateProgram(ctx context.Context, in ProgramInput) (Program, error) {
	in.Network = strings.ToLower(strings.TrimSpace(in.Network))
	in.ProgramName = strings.TrimSpace(in.ProgramName)
	in.APIProgramID = strings.TrimSpace(in.APIProgramID)
	for field, v := range map[string]string{"network": in.Network, "programName": in.ProgramName, "apiProgramId": in.APIProgramID} {
		if v == "" {
			return Program{}, httpx.Invalid(field, "is required")
		}
	}
	return s.repo.CreateProgram(ctx, in)
}

// ListLinks returns the links of a tool, primary first.
func (s *Service) ListLinks(ctx context.Context, toolID uuid.UUID) ([]Link, error) {
	return s.repo.ListLinks(ctx, toolID)
}

// CreateLink attaches a link to a tool. A primary link demotes the others.
func (s *Service) CreateLink(ctx context.Context, toolID uuid.UUID, in LinkInput) (Link, error) {
	link, err := s.repo.CreateLink(ctx, toolID, in)
	if err != nil {
		return Link{}, err
	}
	if err := s.targets.Bump(ctx); err != nil {
		s.logger.Warn("invalidate redirect cache", slog.Any("error", err), slog.String("tool_id", toolID.String()))
	}
	return link, nil
}

// Resolve returns the outbound target for a published tool slug. When the
// cache is unreachable the target is read straight from the repository.
func (s *Service) Resolve(ctx context.Context, slug string) (Target, error) {
	var t Target
	err := s.targets.FetchJSON(ctx, &t, func(ctx context.Context) (any, error) {
		return s.repo.Target(ctx, slug)
	}, "go", slug)
	if errors.Is(err, cache.ErrUnavailable) {
		s.logger.Warn("redirect cache unavailable", slog.Any("error", err), slog.String("slug", slug))
		return s.repo.Target(ctx, slug)
	}
	return t, err
}

// RecordClick stores an outbound click on t.
func (s *Service) RecordClick(ctx context.Context, t Target, userID uuid.UUID, ip, userAgent string) error {
	click := Click{ToolID: t.ToolID, ProgramID: t.ProgramID, IPAddress: ip, UserAgent: userAgent}
	if userID != uuid.Nil {
		click.UserID = &userID
	}
	return s.repo.RecordClick(ctx, click)
}
