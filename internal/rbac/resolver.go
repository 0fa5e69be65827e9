package rbac

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
)

// ErrNoRole means the user has no resolvable role binding.
var ErrNoRole = fmt.Errorf("rbac: no role assigned: %w", httpx.ErrForbidden)

// Resolver computes the AccessContext of a user. It reads on every call.
type Resolver struct {
	store Store
}

// NewResolver constructs a Resolver.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve loads the user's role and the permissions granted to it.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID) (AccessContext, error) {
	user, err := r.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return AccessContext{}, ErrNoRole
		}
		return AccessContext{}, err
	}
	names, err := r.store.RolePermissionNames(ctx, user.RoleID)
	if err != nil {
		return AccessContext{}, err
	}
	return AccessContext{
		UserID:      user.ID,
		Email:       user.Email,
		RoleName:    user.RoleName,
		IsActive:    user.IsActive,
		Permissions: normalizePermissions(names),
	}, nil
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		unique[p] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for p := range unique {
		normalized = append(normalized, p)
	}
	sort.Strings(normalized)
	return normalized
}
