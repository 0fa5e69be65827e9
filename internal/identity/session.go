package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionPayload is the JSON document the provider stores per session.
type SessionPayload struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionAuthenticator resolves cookie sessions stored in Redis by the provider.
type SessionAuthenticator struct {
	client     *redis.Client
	cookieName string
	now        func() time.Time
}

// NewSessionAuthenticator constructs a SessionAuthenticator.
func NewSessionAuthenticator(client *redis.Client, cookieName string) *SessionAuthenticator {
	return &SessionAuthenticator{client: client, cookieName: cookieName, now: time.Now}
}

// Authenticate implements Authenticator.
func (a *SessionAuthenticator) Authenticate(r *http.Request) (Identity, error) {
	id, err := credential(r, a.cookieName)
	if err != nil {
		return Identity{}, err
	}
	payload, err := a.load(r.Context(), id)
	if err != nil {
		return Identity{}, err
	}
	if !payload.ExpiresAt.IsZero() && !a.now().Before(payload.ExpiresAt) {
		return Identity{}, ErrInvalidCredential
	}
	return newIdentity(payload.UserID, payload.Email)
}

// Store writes a session payload. The provider owns session creation; this
// exists for operator tooling and tests.
func (a *SessionAuthenticator) Store(ctx context.Context, sessionID string, payload SessionPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ttl := time.Duration(0)
	if !payload.ExpiresAt.IsZero() {
		ttl = time.Until(payload.ExpiresAt)
		if ttl <= 0 {
			return errors.New("identity: session already expired")
		}
	}
	return a.client.Set(ctx, sessionKey(sessionID), data, ttl).Err()
}

func (a *SessionAuthenticator) load(ctx context.Context, id string) (SessionPayload, error) {
	data, err := a.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return SessionPayload{}, ErrInvalidCredential
		}
		return SessionPayload{}, fmt.Errorf("identity: load session: %w", err)
	}
	var payload SessionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return SessionPayload{}, ErrInvalidCredential
	}
	return payload, nil
}

func sessionKey(id string) string {
	return "session:" + id
}
