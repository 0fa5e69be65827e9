package identity_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewdesk/reviewdesk/internal/identity"
	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTokenAuth(t *testing.T) *identity.TokenAuthenticator {
	t.Helper()
	auth, err := identity.NewTokenAuthenticator("rd_session", testSecret, "auth.reviewdesk.test")
	require.NoError(t, err)
	return auth
}

func TestTokenAuthenticatorCookieRoundTrip(t *testing.T) {
	auth := newTokenAuth(t)
	id := identity.Identity{ID: uuid.New(), Email: "editor@example.com"}
	token, err := auth.Sign(id, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "rd_session", Value: token})

	got, err := auth.Authenticate(req)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTokenAuthenticatorBearerHeaderLowercasesEmail(t *testing.T) {
	auth := newTokenAuth(t)
	id := uuid.New()
	token, err := auth.Sign(identity.Identity{ID: id, Email: "Mixed@Example.COM"}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	got, err := auth.Authenticate(req)
	require.NoError(t, err)
	assert.Equal(t, "mixed@example.com", got.Email)
	assert.Equal(t, id, got.ID)
}

func TestTokenAuthenticatorRejections(t *testing.T) {
	auth := newTokenAuth(t)

	t.Run("no credential", func(t *testing.T) {
		_, err := auth.Authenticate(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.ErrorIs(t, err, identity.ErrNoCredential)
		assert.ErrorIs(t, err, httpx.ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := auth.Sign(identity.Identity{ID: uuid.New(), Email: "a@b.c"}, -time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		_, err = auth.Authenticate(req)
		assert.ErrorIs(t, err, identity.ErrInvalidCredential)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := identity.NewTokenAuthenticator("rd_session", "ffffffffffffffffffffffffffffffff", "auth.reviewdesk.test")
		require.NoError(t, err)
		token, err := other.Sign(identity.Identity{ID: uuid.New(), Email: "a@b.c"}, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		_, err = auth.Authenticate(req)
		assert.ErrorIs(t, err, identity.ErrInvalidCredential)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := identity.NewTokenAuthenticator("rd_session", testSecret, "someone-else")
		require.NoError(t, err)
		token, err := other.Sign(identity.Identity{ID: uuid.New(), Email: "a@b.c"}, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		_, err = auth.Authenticate(req)
		assert.ErrorIs(t, err, identity.ErrInvalidCredential)
	})

	t.Run("subject not a uuid", func(t *testing.T) {
		claims := identity.Claims{
			Email: "a@b.c",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-42",
				Issuer:    "auth.reviewdesk.test",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		_, err = auth.Authenticate(req)
		assert.True(t, errors.Is(err, identity.ErrInvalidCredential))
	})

	t.Run("non bearer scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
		_, err := auth.Authenticate(req)
		assert.ErrorIs(t, err, identity.ErrInvalidCredential)
	})
}

func TestNewTokenAuthenticatorRequiresSecret(t *testing.T) {
	_, err := identity.NewTokenAuthenticator("c", "short", "")
	assert.Error(t, err)
}
