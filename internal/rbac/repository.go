package rbac

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reviewdesk/reviewdesk/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

const userColumns = `u.id, u.email, u.role_id, r.name, u.is_active, u.created_at, u.updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.RoleID, &u.RoleName, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetUser loads a user joined with its role.
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u JOIN roles r ON r.id = u.role_id WHERE u.id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("rbac: get user: %w", err)
	}
	return u, nil
}

// InsertUser inserts a user, skipping silently on any conflict.
func (r *Repository) InsertUser(ctx context.Context, user User) (bool, error) {
	tag, err := r.pool.Exec(ctx, `INSERT INTO users (id, email, role_id, is_active) VALUES ($1, $2, $3, TRUE) ON CONFLICT DO NOTHING`, user.ID, user.Email, user.RoleID)
	if err != nil {
		return false, fmt.Errorf("rbac: insert user: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetUserRole changes the role a user holds.
func (r *Repository) SetUserRole(ctx context.Context, userID, roleID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role_id = $2, updated_at = NOW() WHERE id = $1`, userID, roleID)
	if err != nil {
		if db.IsForeignKeyViolation(err, "") {
			return ErrRoleNotFound
		}
		return fmt.Errorf("rbac: set user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	var desc *string
	if err := row.Scan(&role.ID, &role.Name, &desc, &role.CreatedAt); err != nil {
		return Role{}, err
	}
	if desc != nil {
		role.Description = *desc
	}
	return role, nil
}

// GetRoleByName fetches a role by its unique name.
func (r *Repository) GetRoleByName(ctx context.Context, name string) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `SELECT id, name, description, created_at FROM roles WHERE name = $1`, name))
	if err != nil {
		if db.IsNoRows(err) {
			return Role{}, ErrRoleNotFound
		}
		return Role{}, fmt.Errorf("rbac: get role: %w", err)
	}
	return role, nil
}

// ListRoles returns all roles ordered by name.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("rbac: list roles: %w", err)
	}
	defer rows.Close()
	roles := make([]Role, 0)
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// CreateRole inserts a new role.
func (r *Repository) CreateRole(ctx context.Context, name, description string) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `INSERT INTO roles (name, description) VALUES ($1, NULLIF($2, '')) RETURNING id, name, description, created_at`, name, description))
	if err != nil {
		if db.IsUniqueViolation(err, "roles_name_unique") {
			return Role{}, ErrDuplicateName
		}
		return Role{}, fmt.Errorf("rbac: create role: %w", err)
	}
	return role, nil
}

// UpsertRole inserts or refreshes the description of a role by name.
func (r *Repository) UpsertRole(ctx context.Context, name, description string) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `
		INSERT INTO roles (name, description) VALUES ($1, NULLIF($2, ''))
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
		RETURNING id, name, description, created_at`, name, description))
	if err != nil {
		return Role{}, fmt.Errorf("rbac: upsert role: %w", err)
	}
	return role, nil
}

func scanPermission(row pgx.Row) (Permission, error) {
	var perm Permission
	var desc *string
	if err := row.Scan(&perm.ID, &perm.Name, &desc, &perm.CreatedAt); err != nil {
		return Permission{}, err
	}
	if desc != nil {
		perm.Description = *desc
	}
	return perm, nil
}

// ListPermissions returns all permissions ordered by name.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at FROM permissions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("rbac: list permissions: %w", err)
	}
	defer rows.Close()
	perms := make([]Permission, 0)
	for rows.Next() {
		perm, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

// CreatePermission inserts a new permission.
func (r *Repository) CreatePermission(ctx context.Context, name, description string) (Permission, error) {
	perm, err := scanPermission(r.pool.QueryRow(ctx, `INSERT INTO permissions (name, description) VALUES ($1, NULLIF($2, '')) RETURNING id, name, description, created_at`, name, description))
	if err != nil {
		if db.IsUniqueViolation(err, "permissions_name_unique") {
			return Permission{}, ErrDuplicateName
		}
		return Permission{}, fmt.Errorf("rbac: create permission: %w", err)
	}
	return perm, nil
}

// UpsertPermission inserts or refreshes the description of a permission by name.
func (r *Repository) UpsertPermission(ctx context.Context, name, description string) (Permission, error) {
	perm, err := scanPermission(r.pool.QueryRow(ctx, `
		INSERT INTO permissions (name, description) VALUES ($1, NULLIF($2, ''))
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
		RETURNING id, name, description, created_at`, name, description))
	if err != nil {
		return Permission{}, fmt.Errorf("rbac: upsert permission: %w", err)
	}
	return perm, nil
}

// GrantPermission attaches a permission to a role when not already attached.
func (r *Repository) GrantPermission(ctx context.Context, roleID, permissionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT (role_id, permission_id) DO NOTHING`, roleID, permissionID)
	if err != nil {
		return fmt.Errorf("rbac: grant permission: %w", err)
	}
	return nil
}

// RolePermissionNames returns the names of permissions granted to the role.
func (r *Repository) RolePermissionNames(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.name FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.name`, roleID)
	if err != nil {
		return nil, fmt.Errorf("rbac: role permissions: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("rbac: role permissions: %w", err)
	}
	return names, nil
}

// ListRolePermissions returns every grant with role and permission names.
func (r *Repository) ListRolePermissions(ctx context.Context) ([]RolePermission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.name, p.id, p.name FROM role_permissions rp
		JOIN roles r ON r.id = rp.role_id
		JOIN permissions p ON p.id = rp.permission_id
		ORDER BY r.name, p.name`)
	if err != nil {
		return nil, fmt.Errorf("rbac: list role permissions: %w", err)
	}
	defer rows.Close()
	out := make([]RolePermission, 0)
	for rows.Next() {
		var rp RolePermission
		if err := rows.Scan(&rp.RoleID, &rp.Role, &rp.PermissionID, &rp.Permission); err != nil {
			return nil, err
		}
		out = append(out, rp)
	}
	return out, rows.Err()
}

// ReplaceRolePermissions swaps the role's grants for exactly permissionIDs.
func (r *Repository) ReplaceRolePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked uuid.UUID
		if err := tx.QueryRow(ctx, `SELECT id FROM roles WHERE id = $1 FOR UPDATE`, roleID).Scan(&locked); err != nil {
			if db.IsNoRows(err) {
				return ErrRoleNotFound
			}
			return fmt.Errorf("rbac: lock role: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return fmt.Errorf("rbac: clear role permissions: %w", err)
		}
		for _, permID := range permissionIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, roleID, permID); err != nil {
				if db.IsForeignKeyViolation(err, "") {
					return ErrPermissionNotFound
				}
				return fmt.Errorf("rbac: attach permission: %w", err)
			}
		}
		return nil
	})
}
