package rbac

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
	"github.com/reviewdesk/reviewdesk/internal/shared"
)

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Service orchestrates RBAC administration.
type Service struct {
	store Store
	audit shared.AuditRecorder
}

// NewService constructs a Service backed by the provided store.
func NewService(store Store, audit shared.AuditRecorder) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	return &Service{store: store, audit: audit}
}

// VerifySeed fails with ErrSeedMissing when the baseline roles are absent.
func VerifySeed(ctx context.Context, store Store) error {
	for _, name := range []string{RoleCustomer, RoleSuperadmin} {
		if _, err := store.GetRoleByName(ctx, name); err != nil {
			if errors.Is(err, ErrRoleNotFound) {
				return ErrSeedMissing
			}
			return err
		}
	}
	return nil
}

// ListRoles returns all roles ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.store.ListRoles(ctx)
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, actor uuid.UUID, name, description string) (Role, error) {
	name, err := validateName("name", name, 80)
	if err != nil {
		return Role{}, err
	}
	role, err := s.store.CreateRole(ctx, name, strings.TrimSpace(description))
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, actor, "rbac.role_created", "role", role.ID.String(), map[string]any{"name": role.Name})
	return role, nil
}

// ListPermissions returns all permissions ordered by name.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.store.ListPermissions(ctx)
}

// CreatePermission inserts a new permission.
func (s *Service) CreatePermission(ctx context.Context, actor uuid.UUID, name, description string) (Permission, error) {
	name, err := validateName("name", name, 120)
	if err != nil {
		return Permission{}, err
	}
	perm, err := s.store.CreatePermission(ctx, name, strings.TrimSpace(description))
	if err != nil {
		return Permission{}, err
	}
	s.record(ctx, actor, "rbac.permission_created", "permission", perm.ID.String(), map[string]any{"name": perm.Name})
	return perm, nil
}

// ListRolePermissions returns every grant.
func (s *Service) ListRolePermissions(ctx context.Context) ([]RolePermission, error) {
	return s.store.ListRolePermissions(ctx)
}

// SetRolePermissions replaces the permissions granted to a role.
func (s *Service) SetRolePermissions(ctx context.Context, actor, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	unique := make([]uuid.UUID, 0, len(permissionIDs))
	seen := make(map[uuid.UUID]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if err := s.store.ReplaceRolePermissions(ctx, roleID, unique); err != nil {
		return err
	}
	ids := make([]string, len(unique))
	for i, id := range unique {
		ids[i] = id.String()
	}
	s.record(ctx, actor, "rbac.role_permissions_replaced", "role", roleID.String(), map[string]any{"permission_ids": ids})
	return nil
}

func (s *Service) record(ctx context.Context, actor uuid.UUID, action, entity, entityID string, meta map[string]any) {
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actor, Action: action, Entity: entity, EntityID: entityID, Meta: meta})
}

func validateName(field, raw string, max int) (string, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case name == "":
		return "", httpx.Invalid(field, "is required")
	case len(name) > max:
		return "", httpx.Invalid(field, fmt.Sprintf("must be at most %d characters", max))
	case !namePattern.MatchString(name):
		return "", httpx.Invalid(field, "must be lower-case letters, digits and underscores")
	}
	return name, nil
}
