package users

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, filter ListFilter) ([]User, error)
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	RoleByName(ctx context.Context, name string) (uuid.UUID, error)
	SetRole(ctx context.Context, userID, roleID uuid.UUID) error
	SetActive(ctx context.Context, userID uuid.UUID, active bool) error
}

// Service handles user administration.
type Service struct {
	repo  RepositoryPort
	audit shared.AuditRecorder
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit shared.AuditRecorder) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	return &Service{repo: repo, audit: audit}
}

// ListUsers returns users matching the filter.
func (s *Service) ListUsers(ctx context.Context, filter ListFilter) ([]User, error) {
	filter.Email = strings.ToLower(strings.TrimSpace(filter.Email))
	filter.Role = strings.TrimSpace(filter.Role)
	return s.repo.ListUsers(ctx, filter)
}

// ChangeRole assigns roleID to the user.
func (s *Service) ChangeRole(ctx context.Context, actor, userID, roleID uuid.UUID) (User, error) {
	before, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if err := s.repo.SetRole(ctx, userID, roleID); err != nil {
		return User{}, err
	}
	after, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   "users.role_changed",
		Entity:   "user",
		EntityID: userID.String(),
		Meta:     map[string]any{"from": before.RoleName, "to": after.RoleName},
	})
	return after, nil
}

// GrantByEmail assigns the named role to the user with email. It is the
// operator path used by the CLI.
func (s *Service) GrantByEmail(ctx context.Context, email, role string) (User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return User{}, err
	}
	roleID, err := s.repo.RoleByName(ctx, strings.TrimSpace(role))
	if err != nil {
		return User{}, err
	}
	return s.ChangeRole(ctx, uuid.Nil, user.ID, roleID)
}

// SetStatus enables or disables a user.
func (s *Service) SetStatus(ctx context.Context, actor, userID uuid.UUID, active bool) (User, error) {
	if actor == userID && !active {
		return User{}, ErrSelfDisable
	}
	if err := s.repo.SetActive(ctx, userID, active); err != nil {
		return User{}, err
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   "users.status_changed",
		Entity:   "user",
		EntityID: userID.String(),
		Meta:     map[string]any{"is_active": active},
	})
	return user, nil
}
