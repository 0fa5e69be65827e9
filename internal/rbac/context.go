package rbac

import "context"

type accessContextKey struct{}

type requestAccess struct {
	access AccessContext
	user   User
}

// WithAccess stores the resolved access context and user on ctx.
func WithAccess(ctx context.Context, ac AccessContext, user User) context.Context {
	return context.WithValue(ctx, accessContextKey{}, requestAccess{access: ac, user: user})
}

// FromContext returns the access context attached by the middleware.
func FromContext(ctx context.Context) (AccessContext, bool) {
	ra, ok := ctx.Value(accessContextKey{}).(requestAccess)
	return ra.access, ok
}

// UserFromContext returns the user attached by the middleware.
func UserFromContext(ctx context.Context) (User, bool) {
	ra, ok := ctx.Value(accessContextKey{}).(requestAccess)
	return ra.user, ok
}
