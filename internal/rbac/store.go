package rbac

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
)

var (
	// ErrUserNotFound indicates no application user exists for the id.
	ErrUserNotFound = fmt.Errorf("rbac: user: %w", httpx.ErrNotFound)
	// ErrRoleNotFound indicates the role does not exist.
	ErrRoleNotFound = fmt.Errorf("rbac: role: %w", httpx.ErrNotFound)
	// ErrPermissionNotFound indicates the permission does not exist.
	ErrPermissionNotFound = fmt.Errorf("rbac: permission: %w", httpx.ErrNotFound)
	// ErrDuplicateName indicates a role or permission name is taken.
	ErrDuplicateName = fmt.Errorf("rbac: name already exists: %w", httpx.ErrDuplicate)
)

// Store is the persistence port for roles, permissions and user bindings.
type Store interface {
	SeedStore

	// GetUser loads a user joined with its role name.
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	// InsertUser inserts unless any uniqueness conflict exists and reports
	// whether a row was written.
	InsertUser(ctx context.Context, user User) (bool, error)
	SetUserRole(ctx context.Context, userID, roleID uuid.UUID) error

	GetRoleByName(ctx context.Context, name string) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	CreateRole(ctx context.Context, name, description string) (Role, error)

	ListPermissions(ctx context.Context) ([]Permission, error)
	CreatePermission(ctx context.Context, name, description string) (Permission, error)

	// RolePermissionNames returns the permission names granted to a role.
	RolePermissionNames(ctx context.Context, roleID uuid.UUID) ([]string, error)
	ListRolePermissions(ctx context.Context) ([]RolePermission, error)
	ReplaceRolePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error
}
