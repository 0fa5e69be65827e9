package rbactest

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/identity"
	"github.com/reviewdesk/reviewdesk/internal/rbac"
)

// Test request headers understood by HeaderAuthenticator.
const (
	HeaderUserID = "X-Test-User-Id"
	HeaderEmail  = "X-Test-Email"
)

// HeaderAuthenticator trusts the test identity headers.
var HeaderAuthenticator = identity.AuthenticatorFunc(func(r *http.Request) (identity.Identity, error) {
	raw := r.Header.Get(HeaderUserID)
	if raw == "" {
		return identity.Identity{}, identity.ErrNoCredential
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return identity.Identity{}, identity.ErrInvalidCredential
	}
	return identity.Identity{ID: id, Email: r.Header.Get(HeaderEmail)}, nil
})

// Fixture bundles a seeded store with a middleware wired to it.
type Fixture struct {
	Store      *Store
	Binder     *rbac.Binder
	Middleware rbac.Middleware
}

// NewFixture returns a Fixture over a seeded store with bootstrap disabled.
func NewFixture() *Fixture {
	return NewFixtureWithConfig(rbac.BinderConfig{})
}

// NewFixtureWithConfig returns a Fixture using cfg for the binder.
func NewFixtureWithConfig(cfg rbac.BinderConfig) *Fixture {
	store := NewSeededStore()
	logger := slog.New(slog.DiscardHandler)
	binder := rbac.NewBinder(store, nil, logger, cfg)
	return &Fixture{
		Store:  store,
		Binder: binder,
		Middleware: rbac.Middleware{
			Authenticator: HeaderAuthenticator,
			Binder:        binder,
			Resolver:      rbac.NewResolver(store),
			Gate:          rbac.Gate{Logger: logger},
			Logger:        logger,
		},
	}
}

// As stamps the test identity headers on r.
func As(r *http.Request, id uuid.UUID, email string) *http.Request {
	r.Header.Set(HeaderUserID, id.String())
	r.Header.Set(HeaderEmail, email)
	return r
}

// UserAs creates a user with the role and stamps it on r.
func (f *Fixture) UserAs(r *http.Request, role string) (*http.Request, uuid.UUID) {
	email := role + "-" + uuid.NewString()[:8] + "@example.com"
	id := f.Store.AddUser(email, role)
	return As(r, id, email), id
}
