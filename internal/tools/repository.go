package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reviewdesk/reviewdesk/internal/platform/db"
	"github.com/reviewdesk/reviewdesk/internal/shared"
)

// Repository persists tools.
type Repository interface {
	Create(ctx context.Context, in CreateInput, createdBy uuid.UUID) (Tool, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (Tool, error)
	SetStatus(ctx context.Context, id uuid.UUID, status shared.Status) (Tool, error)
	List(ctx context.Context, filter ListFilter) ([]Tool, error)
	GetBySlug(ctx context.Context, slug string, statuses []string) (Tool, error)
	Categories(ctx context.Context, toolID uuid.UUID) ([]CategoryRef, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const columns = `t.id, t.name, t.slug, COALESCE(t.website_url, ''), COALESCE(t.description, ''),
	t.starting_price, COALESCE(t.pricing_model, ''), t.free_trial, COALESCE(t.logo_url, ''),
	t.feature_score, t.pricing_score, t.usability_score, t.integration_score, t.user_score,
	t.overall_score, t.status, t.created_by, t.created_at, t.updated_at`

func scan(row pgx.Row) (Tool, error) {
	var t Tool
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.WebsiteURL, &t.Description,
		&t.StartingPrice, &t.PricingModel, &t.FreeTrial, &t.LogoURL,
		&t.FeatureScore, &t.PricingScore, &t.UsabilityScore, &t.IntegrationScore, &t.UserScore,
		&t.OverallScore, &t.Status, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func mapWriteErr(op string, err error) error {
	switch {
	case db.IsNoRows(err):
		return ErrNotFound
	case db.IsUniqueViolation(err, "tools_slug_unique"):
		return ErrSlugTaken
	case db.IsForeignKeyViolation(err, ""):
		return ErrUnknownCategory
	}
	return fmt.Errorf("tools: %s: %w", op, err)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create inserts the tool and attaches its categories in one transaction.
func (r *repository) Create(ctx context.Context, in CreateInput, createdBy uuid.UUID) (Tool, error) {
	var creator *uuid.UUID
	if createdBy != uuid.Nil {
		creator = &createdBy
	}
	var created Tool
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		created, err = scan(tx.QueryRow(ctx, `
			WITH t AS (
				INSERT INTO tools (name, slug, website_url, description, starting_price, pricing_model, free_trial, logo_url, created_by)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				RETURNING *
			)
			SELECT `+columns+` FROM t`,
			in.Name, in.Slug, nullable(in.WebsiteURL), nullable(in.Description), in.StartingPrice,
			nullable(in.PricingModel), in.FreeTrial, nullable(in.LogoURL), creator))
		if err != nil {
			return err
		}
		for _, categoryID := range in.CategoryIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO tool_categories (tool_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, created.ID, categoryID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Tool{}, mapWriteErr("create", err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, patch Patch) (Tool, error) {
	u := db.NewUpdate("tools t")
	setString := func(col string, v *string) {
		if v != nil {
			u.Set(col, nullable(*v))
		}
	}
	setFloat := func(col string, v *float64) {
		if v != nil {
			u.Set(col, *v)
		}
	}
	if patch.Name != nil {
		u.Set("name", *patch.Name)
	}
	if patch.Slug != nil {
		u.Set("slug", *patch.Slug)
	}
	setString("website_url", patch.WebsiteURL)
	setString("description", patch.Description)
	setFloat("starting_price", patch.StartingPrice)
	setString("pricing_model", patch.PricingModel)
	if patch.FreeTrial != nil {
		u.Set("free_trial", *patch.FreeTrial)
	}
	setString("logo_url", patch.LogoURL)
	setFloat("feature_score", patch.FeatureScore)
	setFloat("pricing_score", patch.PricingScore)
	setFloat("usability_score", patch.UsabilityScore)
	setFloat("integration_score", patch.IntegrationScore)
	setFloat("user_score", patch.UserScore)
	setFloat("overall_score", patch.OverallScore)
	if u.Empty() {
		t, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM tools t WHERE t.id = $1`, id))
		if err != nil {
			return Tool{}, mapWriteErr("get", err)
		}
		return t, nil
	}
	u.SetRaw("updated_at = NOW()")
	query, args := u.Build(id, columns)
	t, err := scan(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return Tool{}, mapWriteErr("update", err)
	}
	return t, nil
}

func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, status shared.Status) (Tool, error) {
	t, err := scan(r.pool.QueryRow(ctx, `UPDATE tools t SET status = $2, updated_at = NOW() WHERE t.id = $1 RETURNING `+columns, id, status))
	if err != nil {
		return Tool{}, mapWriteErr("set status", err)
	}
	return t, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Tool, error) {
	args := []any{filter.Scope.Statuses()}
	where := []string{"t.status = ANY($1)"}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		where = append(where, fmt.Sprintf("t.name ILIKE $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM tool_categories tc JOIN categories c ON c.id = tc.category_id
			WHERE tc.tool_id = t.id AND c.slug = $%d)`, len(args)))
	}
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM tools t WHERE `+strings.Join(where, " AND ")+` ORDER BY t.name`, args...)
	if err != nil {
		return nil, fmt.Errorf("tools: list: %w", err)
	}
	defer rows.Close()
	out := make([]Tool, 0)
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("tools: scan: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) GetBySlug(ctx context.Context, slug string, statuses []string) (Tool, error) {
	t, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM tools t WHERE t.slug = $1 AND t.status = ANY($2)`, slug, statuses))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tool{}, ErrNotFound
		}
		return Tool{}, fmt.Errorf("tools: get by slug: %w", err)
	}
	return t, nil
}

func (r *repository) Categories(ctx context.Context, toolID uuid.UUID) ([]CategoryRef, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.name, c.slug FROM tool_categories tc
		JOIN categories c ON c.id = tc.category_id
		WHERE tc.tool_id = $1 ORDER BY c.name`, toolID)
	if err != nil {
		return nil, fmt.Errorf("tools: categories: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[CategoryRef])
}
