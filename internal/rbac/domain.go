package rbac

import (
	"time"

	"github.com/google/uuid"
)

// Role names seeded by DefaultCatalog.
const (
	RoleSuperadmin = "superadmin"
	RoleContent    = "content"
	RoleCustomer   = "customer"
)

// Permission names seeded by DefaultCatalog.
const (
	PermManageTools       = "manage_tools"
	PermPublishTools      = "publish_tools"
	PermManageCategories  = "manage_categories"
	PermManageAffiliates  = "manage_affiliates"
	PermManageComparisons = "manage_comparisons"
	PermModerateReviews   = "moderate_reviews"
	PermSubmitReview      = "submit_review"
	PermManagePosts       = "manage_posts"
	PermPublishPosts      = "publish_posts"
	PermManageUsers       = "manage_users"
	PermManageRoles       = "manage_roles"
)

// Role represents a named permission grouping. Each user holds exactly one.
type Role struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Permission represents an atomic capability.
type Permission struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RolePermission is a grant of one permission to one role.
type RolePermission struct {
	RoleID       uuid.UUID `json:"roleId"`
	Role         string    `json:"role"`
	PermissionID uuid.UUID `json:"permissionId"`
	Permission   string    `json:"permission"`
}

// User is the application account bound to a provider identity.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	RoleID    uuid.UUID `json:"roleId"`
	RoleName  string    `json:"roleName"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AccessContext is the resolved authorization view of a user for one request.
// Permissions is sorted and never nil.
type AccessContext struct {
	UserID      uuid.UUID
	Email       string
	RoleName    string
	IsActive    bool
	Permissions []string
}

// Has reports whether the permission is granted directly by the role.
func (ac AccessContext) Has(perm string) bool {
	for _, p := range ac.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// IsSuperadmin reports whether the context holds the superadmin role.
func (ac AccessContext) IsSuperadmin() bool {
	return ac.RoleName == RoleSuperadmin
}
