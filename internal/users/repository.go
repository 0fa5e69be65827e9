package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reviewdesk/reviewdesk/internal/platform/db"
	"github.com/reviewdesk/reviewdesk/internal/rbac"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

const selectUsers = `SELECT u.id, u.email, u.role_id, r.name, u.is_active, u.created_at, u.updated_at
	FROM users u JOIN roles r ON r.id = u.role_id`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.RoleID, &u.RoleName, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// ListUsers returns users ordered by email.
func (r *Repository) ListUsers(ctx context.Context, filter ListFilter) ([]User, error) {
	var (
		where []string
		args  []any
	)
	if filter.Email != "" {
		args = append(args, "%"+filter.Email+"%")
		where = append(where, fmt.Sprintf("u.email ILIKE $%d", len(args)))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		where = append(where, fmt.Sprintf("r.name = $%d", len(args)))
	}
	query := selectUsers
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := r.pool.Query(ctx, query+" ORDER BY u.email", args...)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	out := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("users: scan: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetUser loads a user by id.
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, selectUsers+` WHERE u.id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return User{}, rbac.ErrUserNotFound
		}
		return User{}, fmt.Errorf("users: get: %w", err)
	}
	return u, nil
}

// FindByEmail loads a user by lower-cased email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, selectUsers+` WHERE u.email = $1`, email))
	if err != nil {
		if db.IsNoRows(err) {
			return User{}, rbac.ErrUserNotFound
		}
		return User{}, fmt.Errorf("users: find by email: %w", err)
	}
	return u, nil
}

// RoleByName resolves a role id.
func (r *Repository) RoleByName(ctx context.Context, name string) (uuid.UUID, error) {
	var id uuid.UUID
	if err := r.pool.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, name).Scan(&id); err != nil {
		if db.IsNoRows(err) {
			return uuid.Nil, rbac.ErrRoleNotFound
		}
		return uuid.Nil, fmt.Errorf("users: role by name: %w", err)
	}
	return id, nil
}

// SetRole changes the role of a user.
func (r *Repository) SetRole(ctx context.Context, userID, roleID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role_id = $2, updated_at = NOW() WHERE id = $1`, userID, roleID)
	if err != nil {
		if db.IsForeignKeyViolation(err, "") {
			return rbac.ErrRoleNotFound
		}
		return fmt.Errorf("users: set role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return rbac.ErrUserNotFound
	}
	return nil
}

// SetActive toggles the active flag.
func (r *Repository) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, userID, active)
	if err != nil {
		return fmt.Errorf("users: set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return rbac.ErrUserNotFound
	}
	return nil
}
