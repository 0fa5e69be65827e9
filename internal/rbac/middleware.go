package rbac

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/reviewdesk/reviewdesk/internal/identity"
	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
)

// BootstrapHeader carries the superadmin bootstrap request signal.
const BootstrapHeader = "X-Role-Bootstrap"

// Middleware wires authentication and RBAC authorization for HTTP handlers.
type Middleware struct {
	Authenticator identity.Authenticator
	Binder        *Binder
	Resolver      *Resolver
	Gate          Gate
	Logger        *slog.Logger
}

// RequireAuth rejects requests without a valid identity and attaches the
// resolved AccessContext for the rest of the chain.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return m.authenticate(next, true)
}

// Authenticate attaches the AccessContext when a credential is present and
// lets anonymous requests through untouched.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return m.authenticate(next, false)
}

func (m Middleware) authenticate(next http.Handler, required bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := m.Authenticator.Authenticate(r)
		if err != nil {
			if !required && errors.Is(err, identity.ErrNoCredential) {
				next.ServeHTTP(w, r)
				return
			}
			if !errors.Is(err, httpx.ErrUnauthorized) {
				m.logger().Error("authenticate request", slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}

		ctx := r.Context()
		user, err := m.Binder.EnsureUser(ctx, ident)
		if err != nil {
			m.fail(w, "ensure user", err)
			return
		}
		if !user.IsActive {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "account disabled")
			return
		}
		user, _, err = m.Binder.Bootstrap(ctx, user, bootstrapRequested(r))
		if err != nil {
			m.fail(w, "bootstrap superadmin", err)
			return
		}

		ac, err := m.Resolver.Resolve(ctx, user.ID)
		if err != nil {
			m.fail(w, "resolve access", err)
			return
		}
		if !ac.IsActive {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "account disabled")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAccess(ctx, ac, user)))
	})
}

// RequirePermission ensures the current user holds perm.
func (m Middleware) RequirePermission(perm string) func(http.Handler) http.Handler {
	return m.RequireAny(perm)
}

// RequireAny ensures the current user holds at least one of perms.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := FromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			decision := m.Gate.CheckAny(ac, perms...)
			if !decision.Allowed {
				m.logger().Info("permission denied",
					slog.String("user_id", ac.UserID.String()),
					slog.String("role", ac.RoleName),
					slog.String("path", r.URL.Path),
					slog.Any("missing", decision.Missing))
				httpx.Problem(w, http.StatusForbidden, "Forbidden", decision.Err().Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ErrAnonymous is returned by Authorize for requests without an access context.
var ErrAnonymous = fmt.Errorf("rbac: authentication required: %w", httpx.ErrUnauthorized)

// Authorize checks perm against the request's optional access context. It is
// for handlers behind Authenticate whose behavior widens with a permission.
func (m Middleware) Authorize(r *http.Request, perm string) error {
	ac, ok := FromContext(r.Context())
	if !ok {
		return ErrAnonymous
	}
	return m.Gate.Check(ac, perm).Err()
}

func (m Middleware) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNoRole):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "no role assigned")
	case errors.Is(err, ErrIdentityConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrSeedMissing):
		m.logger().Error("rbac seed missing", slog.String("op", op), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	default:
		m.logger().Error("rbac "+op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (m Middleware) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

func bootstrapRequested(r *http.Request) bool {
	return strings.EqualFold(strings.TrimSpace(r.Header.Get(BootstrapHeader)), RoleSuperadmin)
}
