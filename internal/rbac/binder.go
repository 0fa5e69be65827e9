package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/reviewdesk/reviewdesk/internal/identity"
	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
	"github.com/reviewdesk/reviewdesk/internal/shared"
)

// ErrIdentityConflict means the identity's email is already bound to another user id.
var ErrIdentityConflict = fmt.Errorf("rbac: email already bound to another account: %w", httpx.ErrDuplicate)

// BinderConfig controls the superadmin bootstrap escalation. The escalation
// is off unless BootstrapEnabled is set and the email is allow-listed.
type BinderConfig struct {
	BootstrapEnabled bool
	SuperadminEmails []string
}

// Binder maps provider identities onto application users.
type Binder struct {
	store     Store
	audit     shared.AuditRecorder
	logger    *slog.Logger
	enabled   bool
	allowList map[string]struct{}
}

// NewBinder constructs a Binder.
func NewBinder(store Store, audit shared.AuditRecorder, logger *slog.Logger, cfg BinderConfig) *Binder {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	allow := make(map[string]struct{}, len(cfg.SuperadminEmails))
	for _, email := range cfg.SuperadminEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			allow[email] = struct{}{}
		}
	}
	return &Binder{store: store, audit: audit, logger: logger, enabled: cfg.BootstrapEnabled, allowList: allow}
}

// EnsureUser returns the user bound to the identity, creating it with the
// customer role on first sight. Concurrent calls for the same identity
// converge on a single row.
func (b *Binder) EnsureUser(ctx context.Context, ident identity.Identity) (User, error) {
	user, err := b.store.GetUser(ctx, ident.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}

	customer, err := b.store.GetRoleByName(ctx, RoleCustomer)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return User{}, ErrSeedMissing
		}
		return User{}, err
	}

	inserted, err := b.store.InsertUser(ctx, User{
		ID:       ident.ID,
		Email:    strings.ToLower(strings.TrimSpace(ident.Email)),
		RoleID:   customer.ID,
		IsActive: true,
	})
	if err != nil {
		return User{}, err
	}

	user, err = b.store.GetUser(ctx, ident.ID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrIdentityConflict
		}
		return User{}, err
	}
	if inserted {
		b.logger.Info("bound new user", slog.String("user_id", user.ID.String()), slog.String("role", user.RoleName))
	}
	return user, nil
}

// BootstrapEligible reports whether email may use the superadmin escalation.
func (b *Binder) BootstrapEligible(email string) bool {
	if !b.enabled {
		return false
	}
	_, ok := b.allowList[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// Bootstrap promotes an active allow-listed user to superadmin when the
// request asked for it. It reports whether the role changed.
func (b *Binder) Bootstrap(ctx context.Context, user User, requested bool) (User, bool, error) {
	if !requested || !user.IsActive || user.RoleName == RoleSuperadmin || !b.BootstrapEligible(user.Email) {
		return user, false, nil
	}
	role, err := b.store.GetRoleByName(ctx, RoleSuperadmin)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return user, false, ErrSeedMissing
		}
		return user, false, err
	}
	if err := b.store.SetUserRole(ctx, user.ID, role.ID); err != nil {
		return user, false, err
	}
	previous := user.RoleName
	user.RoleID = role.ID
	user.RoleName = role.Name

	b.logger.Warn("superadmin bootstrap escalation",
		slog.String("user_id", user.ID.String()),
		slog.String("email", user.Email),
		slog.String("previous_role", previous))
	if err := b.audit.Record(ctx, shared.AuditLog{
		ActorID:  user.ID,
		Action:   "rbac.bootstrap_superadmin",
		Entity:   "user",
		EntityID: user.ID.String(),
		Meta:     map[string]any{"email": user.Email, "previous_role": previous},
	}); err != nil {
		b.logger.Error("audit bootstrap escalation", slog.Any("error", err))
	}
	return user, true, nil
}
