package users

import (
	"fmt"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
	"github.com/reviewdesk/reviewdesk/internal/rbac"
)

// User is the account row shown to administrators.
type User = rbac.User

// ListFilter narrows ListUsers.
type ListFilter struct {
	Email string
	Role  string
}

// ErrSelfDisable blocks an administrator from disabling their own account.
var ErrSelfDisable = fmt.Errorf("users: cannot disable your own account: %w", httpx.ErrValidation)
