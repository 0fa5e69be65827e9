package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Grant pairs a role with the permissions it receives.
type Grant struct {
	Role        string
	Permissions []string
}

// Catalog is the seedable set of roles, permissions and grants.
type Catalog struct {
	Roles       []Role
	Permissions []Permission
	Grants      []Grant
}

// DefaultCatalog returns the roles and permissions every deployment starts with.
func DefaultCatalog() Catalog {
	perms := []Permission{
		{Name: PermManageTools, Description: "Create and edit tools"},
		{Name: PermPublishTools, Description: "Publish and unpublish tools"},
		{Name: PermManageCategories, Description: "Create and edit categories"},
		{Name: PermManageAffiliates, Description: "Manage affiliate programs and links"},
		{Name: PermManageComparisons, Description: "Create, edit and publish comparisons"},
		{Name: PermModerateReviews, Description: "Approve or reject reviews"},
		{Name: PermSubmitReview, Description: "Submit tool reviews"},
		{Name: PermManagePosts, Description: "Create and edit posts"},
		{Name: PermPublishPosts, Description: "Publish and unpublish posts"},
		{Name: PermManageUsers, Description: "List users and change their role"},
		{Name: PermManageRoles, Description: "Manage roles and role permissions"},
	}
	all := make([]string, 0, len(perms))
	for _, p := range perms {
		all = append(all, p.Name)
	}
	return Catalog{
		Roles: []Role{
			{Name: RoleSuperadmin, Description: "Full platform access"},
			{Name: RoleContent, Description: "Content management team"},
			{Name: RoleCustomer, Description: "Authenticated customer"},
		},
		Permissions: perms,
		Grants: []Grant{
			{Role: RoleSuperadmin, Permissions: all},
			{Role: RoleContent, Permissions: []string{
				PermManageTools,
				PermPublishTools,
				PermManageCategories,
				PermManageComparisons,
				PermModerateReviews,
				PermManagePosts,
				PermPublishPosts,
			}},
			{Role: RoleCustomer, Permissions: []string{PermSubmitReview}},
		},
	}
}

// SeedStore is the persistence surface needed to apply a Catalog.
type SeedStore interface {
	UpsertRole(ctx context.Context, name, description string) (Role, error)
	UpsertPermission(ctx context.Context, name, description string) (Permission, error)
	GrantPermission(ctx context.Context, roleID, permissionID uuid.UUID) error
}

// SeedResult summarises what Seed touched.
type SeedResult struct {
	Roles       int
	Permissions int
	Grants      int
}

// Seed applies the catalog idempotently. Roles and permissions upsert on name,
// grants are inserted only when missing.
func Seed(ctx context.Context, store SeedStore, catalog Catalog) (SeedResult, error) {
	var res SeedResult
	roleIDs := make(map[string]uuid.UUID, len(catalog.Roles))
	for _, role := range catalog.Roles {
		saved, err := store.UpsertRole(ctx, role.Name, role.Description)
		if err != nil {
			return res, fmt.Errorf("rbac: seed role %s: %w", role.Name, err)
		}
		roleIDs[role.Name] = saved.ID
		res.Roles++
	}
	permIDs := make(map[string]uuid.UUID, len(catalog.Permissions))
	for _, perm := range catalog.Permissions {
		saved, err := store.UpsertPermission(ctx, perm.Name, perm.Description)
		if err != nil {
			return res, fmt.Errorf("rbac: seed permission %s: %w", perm.Name, err)
		}
		permIDs[perm.Name] = saved.ID
		res.Permissions++
	}
	for _, grant := range catalog.Grants {
		roleID, ok := roleIDs[grant.Role]
		if !ok {
			return res, fmt.Errorf("rbac: seed grant references unknown role %q", grant.Role)
		}
		for _, name := range grant.Permissions {
			permID, ok := permIDs[name]
			if !ok {
				return res, fmt.Errorf("rbac: seed grant references unknown permission %q", name)
			}
			if err := store.GrantPermission(ctx, roleID, permID); err != nil {
				return res, fmt.Errorf("rbac: seed grant %s/%s: %w", grant.Role, name, err)
			}
			res.Grants++
		}
	}
	return res, nil
}

// ErrSeedMissing means the baseline roles are absent. It is a deployment
// error: the seed command has not been run.
var ErrSeedMissing = errors.New("rbac: customer role missing, run the seed command")
