package rbac

import (
	"log/slog"
	"strings"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
)

// MissingPermissionError is returned when the gate denies a request.
type MissingPermissionError struct {
	Permissions []string
}

func (e *MissingPermissionError) Error() string {
	if len(e.Permissions) == 1 {
		return "missing permission: " + e.Permissions[0]
	}
	return "missing permission: one of " + strings.Join(e.Permissions, ", ")
}

// Unwrap lets errors.Is match httpx.ErrForbidden.
func (e *MissingPermissionError) Unwrap() error { return httpx.ErrForbidden }

// Decision is the outcome of a gate check.
type Decision struct {
	Allowed bool
	// Bypass is set when only the superadmin rule allowed the request.
	Bypass  bool
	Missing []string
}

// Err returns nil when allowed, otherwise a *MissingPermissionError.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &MissingPermissionError{Permissions: d.Missing}
}

// Gate evaluates permission requirements against an AccessContext.
//
// A requirement passes when any listed permission is granted to the role.
// The superadmin role passes every requirement.
type Gate struct {
	Logger *slog.Logger
}

// Check evaluates a single-permission requirement.
func (g Gate) Check(ac AccessContext, perm string) Decision {
	return g.CheckAny(ac, perm)
}

// CheckAny evaluates an any-of requirement. An empty requirement passes.
func (g Gate) CheckAny(ac AccessContext, perms ...string) Decision {
	required := normalizePermissions(perms)
	if len(required) == 0 {
		return Decision{Allowed: true}
	}
	for _, p := range required {
		if ac.Has(p) {
			return Decision{Allowed: true}
		}
	}
	if ac.IsSuperadmin() {
		if g.Logger != nil {
			g.Logger.Debug("superadmin bypass",
				slog.String("user_id", ac.UserID.String()),
				slog.Any("required", required))
		}
		return Decision{Allowed: true, Bypass: true}
	}
	return Decision{Allowed: false, Missing: required}
}

// Allows is shorthand for CheckAny(...).Allowed.
func (g Gate) Allows(ac AccessContext, perms ...string) bool {
	return g.CheckAny(ac, perms...).Allowed
}
