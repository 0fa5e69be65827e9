package categories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reviewdesk/reviewdesk/internal/platform/db"
)

// Repository persists categories.
type Repository interface {
	List(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id uuid.UUID) (Category, error)
	GetBySlug(ctx context.Context, slug string) (Category, error)
	Create(ctx context.Context, in CreateInput) (Category, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (Category, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const columns = `id, name, slug, created_at`

func scan(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt)
	return c, err
}

func (r *repository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("categories: list: %w", err)
	}
	defer rows.Close()
	out := make([]Category, 0)
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("categories: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Category, error) {
	return r.one(ctx, `SELECT `+columns+` FROM categories WHERE id = $1`, id)
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (Category, error) {
	return r.one(ctx, `SELECT `+columns+` FROM categories WHERE slug = $1`, slug)
}

func (r *repository) one(ctx context.Context, query string, arg any) (Category, error) {
	c, err := scan(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if db.IsNoRows(err) {
			return Category{}, ErrNotFound
		}
		return Category{}, fmt.Errorf("categories: get: %w", err)
	}
	return c, nil
}

// Create inserts the category. A slug collision leaves the existing row untouched.
func (r *repository) Create(ctx context.Context, in CreateInput) (Category, error) {
	c, err := scan(r.pool.QueryRow(ctx,
		`INSERT INTO categories (name, slug) VALUES ($1, $2)
		 ON CONFLICT (slug) DO NOTHING RETURNING `+columns, in.Name, in.Slug))
	if err != nil {
		if db.IsNoRows(err) {
			return Category{}, ErrSlugTaken
		}
		return Category{}, fmt.Errorf("categories: create: %w", err)
	}
	return c, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, patch Patch) (Category, error) {
	u := db.NewUpdate("categories")
	if patch.Name != nil {
		u.Set("name", *patch.Name)
	}
	if patch.Slug != nil {
		u.Set("slug", *patch.Slug)
	}
	if u.Empty() {
		return r.Get(ctx, id)
	}
	query, args := u.Build(id, columns)
	c, err := scan(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		switch {
		case db.IsNoRows(err):
			return Category{}, ErrNotFound
		case db.IsUniqueViolation(err, "categories_slug_unique"):
			return Category{}, ErrSlugTaken
		}
		return Category{}, fmt.Errorf("categories: update: %w", err)
	}
	return c, nil
}
