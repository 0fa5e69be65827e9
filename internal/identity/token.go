package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload signed by the identity provider.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenAuthenticator verifies HS256 tokens minted by the identity provider.
type TokenAuthenticator struct {
	cookieName string
	secret     []byte
	issuer     string
	leeway     time.Duration
}

// NewTokenAuthenticator constructs a TokenAuthenticator. An empty issuer
// disables the issuer check.
func NewTokenAuthenticator(cookieName, secret, issuer string) (*TokenAuthenticator, error) {
	if len(secret) < 16 {
		return nil, errors.New("identity: token secret must be at least 16 bytes")
	}
	return &TokenAuthenticator{cookieName: cookieName, secret: []byte(secret), issuer: issuer, leeway: 30 * time.Second}, nil
}

// Authenticate implements Authenticator.
func (a *TokenAuthenticator) Authenticate(r *http.Request) (Identity, error) {
	raw, err := credential(r, a.cookieName)
	if err != nil {
		return Identity{}, err
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(a.leeway),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidCredential
	}
	return newIdentity(claims.Subject, claims.Email)
}

// Sign mints a token for the identity. The provider owns issuance in
// production; this exists for operator tooling and tests.
func (a *TokenAuthenticator) Sign(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID.String(),
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
