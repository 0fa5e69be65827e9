package comparisons

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reviewdesk/reviewdesk/internal/platform/db"
	"github.com/reviewdesk/reviewdesk/internal/shared"
)

// Repository persists comparisons.
type Repository interface {
	List(ctx context.Context, statuses []string) ([]Comparison, error)
	GetBySlug(ctx context.Context, slug string, statuses []string) (Comparison, error)
	PublishedTools(ctx context.Context, comparisonID uuid.UUID) ([]ToolSummary, error)
	Create(ctx context.Context, in CreateInput, createdBy uuid.UUID) (Comparison, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (Comparison, error)
	SetStatus(ctx context.Context, id uuid.UUID, status shared.Status) (Comparison, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const selectComparisons = `SELECT c.id, c.title, c.slug, c.status, c.created_by, c.created_at,
	COALESCE(array_agg(ct.tool_id ORDER BY ct.tool_id) FILTER (WHERE ct.tool_id IS NOT NULL), '{}')
	FROM comparisons c LEFT JOIN comparison_tools ct ON ct.comparison_id = c.id`

const groupComparisons = ` GROUP BY c.id`

func scan(row pgx.Row) (Comparison, error) {
	var c Comparison
	err := row.Scan(&c.ID, &c.Title, &c.Slug, &c.Status, &c.CreatedBy, &c.CreatedAt, &c.ToolIDs)
	return c, err
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func get(ctx context.Context, q querier, where string, args ...any) (Comparison, error) {
	c, err := scan(q.QueryRow(ctx, selectComparisons+" WHERE "+where+groupComparisons, args...))
	if err != nil {
		if db.IsNoRows(err) {
			return Comparison{}, ErrNotFound
		}
		return Comparison{}, fmt.Errorf("comparisons: get: %w", err)
	}
	return c, nil
}

func (r *repository) List(ctx context.Context, statuses []string) ([]Comparison, error) {
	rows, err := r.pool.Query(ctx, selectComparisons+` WHERE c.status = ANY($1)`+groupComparisons+` ORDER BY c.created_at DESC`, statuses)
	if err != nil {
		return nil, fmt.Errorf("comparisons: list: %w", err)
	}
	defer rows.Close()
	out := make([]Comparison, 0)
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("comparisons: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) GetBySlug(ctx context.Context, slug string, statuses []string) (Comparison, error) {
	return get(ctx, r.pool, "c.slug = $1 AND c.status = ANY($2)", slug, statuses)
}

func (r *repository) PublishedTools(ctx context.Context, comparisonID uuid.UUID) ([]ToolSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.name, t.slug, COALESCE(t.logo_url, ''), t.starting_price,
			COALESCE(t.pricing_model, ''), t.free_trial, t.overall_score
		FROM comparison_tools ct JOIN tools t ON t.id = ct.tool_id
		WHERE ct.comparison_id = $1 AND t.status = 'published'
		ORDER BY t.overall_score DESC NULLS LAST, t.name`, comparisonID)
	if err != nil {
		return nil, fmt.Errorf("comparisons: tools: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[ToolSummary])
}

func replaceTools(ctx context.Context, tx pgx.Tx, id uuid.UUID, toolIDs []uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM comparison_tools WHERE comparison_id = $1`, id); err != nil {
		return err
	}
	for _, toolID := range toolIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO comparison_tools (comparison_id, tool_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, toolID); err != nil {
			return err
		}
	}
	return nil
}

func mapWriteErr(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return err
	case db.IsUniqueViolation(err, "comparisons_slug_unique"):
		return ErrSlugTaken
	case db.IsForeignKeyViolation(err, "comparison_tools_tool_id_fkey"):
		return ErrUnknownTool
	}
	return fmt.Errorf("comparisons: %s: %w", op, err)
}

func (r *repository) Create(ctx context.Context, in CreateInput, createdBy uuid.UUID) (Comparison, error) {
	var creator *uuid.UUID
	if createdBy != uuid.Nil {
		creator = &createdBy
	}
	var out Comparison
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id uuid.UUID
		if err := tx.QueryRow(ctx, `INSERT INTO comparisons (title, slug, created_by) VALUES ($1, $2, $3) RETURNING id`, in.Title, in.Slug, creator).Scan(&id); err != nil {
			return err
		}
		if err := replaceTools(ctx, tx, id, in.ToolIDs); err != nil {
			return err
		}
		var err error
		out, err = get(ctx, tx, "c.id = $1", id)
		return err
	})
	if err != nil {
		return Comparison{}, mapWriteErr("create", err)
	}
	return out, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, patch Patch) (Comparison, error) {
	var out Comparison
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked uuid.UUID
		if err := tx.QueryRow(ctx, `SELECT id FROM comparisons WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
			if db.IsNoRows(err) {
				return ErrNotFound
			}
			return err
		}
		u := db.NewUpdate("comparisons")
		if patch.Title != nil {
			u.Set("title", *patch.Title)
		}
		if patch.Slug != nil {
			u.Set("slug", *patch.Slug)
		}
		if !u.Empty() {
			query, args := u.Build(id, "")
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return err
			}
		}
		if patch.ToolIDs != nil {
			if err := replaceTools(ctx, tx, id, *patch.ToolIDs); err != nil {
				return err
			}
		}
		var err error
		out, err = get(ctx, tx, "c.id = $1", id)
		return err
	})
	if err != nil {
		return Comparison{}, mapWriteErr("update", err)
	}
	return out, nil
}

func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, status shared.Status) (Comparison, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE comparisons SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return Comparison{}, fmt.Errorf("comparisons: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Comparison{}, ErrNotFound
	}
	return get(ctx, r.pool, "c.id = $1", id)
}
