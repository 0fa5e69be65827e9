package rbac_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewdesk/reviewdesk/internal/rbac"
	"github.com/reviewdesk/reviewdesk/internal/rbac/rbactest"
)

func TestResolverReadsCurrentGrants(t *testing.T) {
	ctx := context.Background()
	store := rbactest.NewSeededStore()
	resolver := rbac.NewResolver(store)
	id := store.AddUser("writer@example.com", rbac.RoleContent)

	ac, err := resolver.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleContent, ac.RoleName)
	assert.True(t, ac.Has(rbac.PermManageTools))
	assert.True(t, ac.IsActive)

	store.RevokePermission(rbac.RoleContent, rbac.PermManageTools)
	ac, err = resolver.Resolve(ctx, id)
	require.NoError(t, err)
	assert.False(t, ac.Has(rbac.PermManageTools))
}

func TestResolverUnknownUser(t *testing.T) {
	_, err := rbac.NewResolver(rbactest.NewSeededStore()).Resolve(context.Background(), uuid.New())
	assert.ErrorIs(t, err, rbac.ErrNoRole)
}

func TestResolverEmptyRoleHasNoPermissions(t *testing.T) {
	ctx := context.Background()
	store := rbactest.NewSeededStore()
	role, err := store.CreateRole(ctx, "guest", "")
	require.NoError(t, err)
	id := store.AddUser("guest@example.com", role.Name)

	ac, err := rbac.NewResolver(store).Resolve(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, ac.Permissions)
	assert.Empty(t, ac.Permissions)
}
