package rbac

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
)

func TestGateCheck(t *testing.T) {
	content := AccessContext{UserID: uuid.New(), RoleName: RoleContent, IsActive: true, Permissions: []string{PermManagePosts, PermManageTools}}
	customer := AccessContext{UserID: uuid.New(), RoleName: RoleCustomer, IsActive: true, Permissions: []string{PermSubmitReview}}
	superadmin := AccessContext{UserID: uuid.New(), RoleName: RoleSuperadmin, IsActive: true, Permissions: []string{}}

	cases := []struct {
		name       string
		ac         AccessContext
		perms      []string
		allowed    bool
		bypass     bool
		wantDetail string
	}{
		{name: "direct grant", ac: content, perms: []string{PermManageTools}, allowed: true},
		{name: "any of", ac: content, perms: []string{PermManageAffiliates, PermManagePosts}, allowed: true},
		{name: "empty requirement", ac: customer, allowed: true},
		{name: "missing single", ac: customer, perms: []string{PermManageTools}, wantDetail: "missing permission: manage_tools"},
		{name: "missing any of", ac: customer, perms: []string{PermPublishTools, PermManageTools}, wantDetail: "missing permission: one of manage_tools, publish_tools"},
		{name: "superadmin bypass", ac: superadmin, perms: []string{PermManageRoles}, allowed: true, bypass: true},
		{name: "requirement normalised", ac: content, perms: []string{" MANAGE_TOOLS "}, allowed: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Gate{}.CheckAny(tc.ac, tc.perms...)
			assert.Equal(t, tc.allowed, d.Allowed)
			assert.Equal(t, tc.bypass, d.Bypass)
			if tc.allowed {
				assert.NoError(t, d.Err())
				return
			}
			err := d.Err()
			require.Error(t, err)
			assert.Equal(t, tc.wantDetail, err.Error())
			assert.True(t, errors.Is(err, httpx.ErrForbidden))
		})
	}
}

func TestGateBypassOnlyWhenNeeded(t *testing.T) {
	ac := AccessContext{RoleName: RoleSuperadmin, Permissions: []string{PermManageTools}}
	d := Gate{}.Check(ac, PermManageTools)
	assert.True(t, d.Allowed)
	assert.False(t, d.Bypass)
}

func TestAccessContextHas(t *testing.T) {
	ac := AccessContext{Permissions: normalizePermissions([]string{"b", "a", "a", " "})}
	assert.Equal(t, []string{"a", "b"}, ac.Permissions)
	assert.True(t, ac.Has("a"))
	assert.False(t, ac.Has("c"))
	assert.NotNil(t, normalizePermissions(nil))
}
