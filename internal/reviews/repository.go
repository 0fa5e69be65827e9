package reviews

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reviewdesk/reviewdesk/internal/platform/db"
)

// Repository persists reviews.
type Repository interface {
	Create(ctx context.Context, toolID, userID uuid.UUID, in SubmitInput) (Review, error)
	ListByStatus(ctx context.Context, status Status) ([]Review, error)
	ListApprovedForTool(ctx context.Context, toolID uuid.UUID) ([]Review, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status) (Review, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const reviewColumns = `id, tool_id, user_id, title, content, rating::float8, status, created_at`

func scanReview(row pgx.Row) (Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.ToolID, &r.UserID, &r.Title, &r.Content, &r.Rating, &r.Status, &r.CreatedAt)
	return r, err
}

func (r *repository) Create(ctx context.Context, toolID, userID uuid.UUID, in SubmitInput) (Review, error) {
	rev, err := scanReview(r.pool.QueryRow(ctx, `
		INSERT INTO reviews (tool_id, user_id, title, content, rating)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+reviewColumns, toolID, userID, in.Title, in.Content, *in.Rating))
	if err != nil {
		if db.IsForeignKeyViolation(err, "reviews_tool_id_fkey") {
			return Review{}, ErrToolNotFound
		}
		return Review{}, fmt.Errorf("reviews: create: %w", err)
	}
	return rev, nil
}

func (r *repository) list(ctx context.Context, where string, args ...any) ([]Review, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("reviews: list: %w", err)
	}
	defer rows.Close()
	out := make([]Review, 0)
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("reviews: scan: %w", err)
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

func (r *repository) ListByStatus(ctx context.Context, status Status) ([]Review, error) {
	return r.list(ctx, "status = $1", status)
}

func (r *repository) ListApprovedForTool(ctx context.Context, toolID uuid.UUID) ([]Review, error) {
	return r.list(ctx, "tool_id = $1 AND status = $2", toolID, StatusApproved)
}

func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, status Status) (Review, error) {
	rev, err := scanReview(r.pool.QueryRow(ctx, `UPDATE reviews SET status = $2 WHERE id = $1 RETURNING `+reviewColumns, id, status))
	if err != nil {
		if db.IsNoRows(err) {
			return Review{}, ErrNotFound
		}
		return Review{}, fmt.Errorf("reviews: set status: %w", err)
	}
	return rev, nil
}
