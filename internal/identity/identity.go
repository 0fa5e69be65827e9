// Package identity reads the caller identity asserted by the external
// authentication provider. It never verifies passwords or issues credentials.
package identity

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
)

var (
	// ErrNoCredential means the request carries no credential at all.
	ErrNoCredential = fmt.Errorf("identity: no credential: %w", httpx.ErrUnauthorized)
	// ErrInvalidCredential means a credential was present but rejected.
	ErrInvalidCredential = fmt.Errorf("identity: invalid credential: %w", httpx.ErrUnauthorized)
)

// Identity is the provider-asserted subject of a request.
type Identity struct {
	ID    uuid.UUID
	Email string
}

// Authenticator extracts an Identity from a request.
type Authenticator interface {
	Authenticate(r *http.Request) (Identity, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(r *http.Request) (Identity, error)

// Authenticate implements Authenticator.
func (f AuthenticatorFunc) Authenticate(r *http.Request) (Identity, error) { return f(r) }

// credential returns the raw credential from the named cookie, falling back to
// a bearer Authorization header.
func credential(r *http.Request, cookieName string) (string, error) {
	if cookie, err := r.Cookie(cookieName); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return strings.TrimSpace(cookie.Value), nil
	} else if err != nil && !errors.Is(err, http.ErrNoCookie) {
		return "", ErrInvalidCredential
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoCredential
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrInvalidCredential
	}
	return strings.TrimSpace(token), nil
}

func newIdentity(rawID, email string) (Identity, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil || id == uuid.Nil {
		return Identity{}, ErrInvalidCredential
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Identity{}, ErrInvalidCredential
	}
	return Identity{ID: id, Email: email}, nil
}
