package affiliates

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reviewdesk/reviewdesk/internal/platform/db"
)

// Repository persists programs, links and clicks.
type Repository interface {
	ListPrograms(ctx context.Context) ([]Program, error)
	CreateProgram(ctx context.Context, in ProgramInput) (Program, error)
	ListLinks(ctx context.Context, toolID uuid.UUID) ([]Link, error)
	CreateLink(ctx context.Context, toolID uuid.UUID, in LinkInput) (Link, error)
	Target(ctx context.Context, toolSlug string) (Target, error)
	RecordClick(ctx context.Context, click Click) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const programColumns = `id, network, program_name, api_program_id, COALESCE(commission_type, ''), commission_rate::float8, recurring, created_at`

const linkColumns = `id, tool_id, affiliate_program_id, tracking_url, is_primary, created_at`

func (r *repository) ListPrograms(ctx context.Context) ([]Program, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+programColumns+` FROM affiliate_programs ORDER BY network, program_name`)
	if err != nil {
		return nil, fmt.Errorf("affiliates: list programs: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Program])
}

func (r *repository) CreateProgram(ctx context.Context, in ProgramInput) (Program, error) {
	var commissionType *string
	if in.CommissionType != "" {
		commissionType = &in.CommissionType
	}
	rows, err := r.pool.Query(ctx, `
		INSERT INTO affiliate_programs (network, program_name, api_program_id, commission_type, commission_rate, recurring)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+programColumns,
		in.Network, in.ProgramName, in.APIProgramID, commissionType, in.CommissionRate, in.Recurring)
	if err != nil {
		return Program{}, fmt.Errorf("affiliates: create program: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[Program])
	if err != nil {
		if db.IsUniqueViolation(err, "affiliate_programs_network_program_unique") {
			return Program{}, ErrProgramExists
		}
		return Program{}, fmt.Errorf("affiliates: create program: %w", err)
	}
	return p, nil
}

func (r *repository) ListLinks(ctx context.Context, toolID uuid.UUID) ([]Link, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tools WHERE id = $1)`, toolID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("affiliates: check tool: %w", err)
	}
	if !exists {
		return nil, ErrToolNotFound
	}
	rows, err := r.pool.Query(ctx, `SELECT `+linkColumns+` FROM affiliate_links WHERE tool_id = $1 ORDER BY is_primary DESC, created_at DESC`, toolID)
	if err != nil {
		return nil, fmt.Errorf("affiliates: list links: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Link])
}

// CreateLink locks the tool row so concurrent primary assignments serialise.
func (r *repository) CreateLink(ctx context.Context, toolID uuid.UUID, in LinkInput) (Link, error) {
	var out Link
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked uuid.UUID
		if err := tx.QueryRow(ctx, `SELECT id FROM tools WHERE id = $1 FOR UPDATE`, toolID).Scan(&locked); err != nil {
			if db.IsNoRows(err) {
				return ErrToolNotFound
			}
			return err
		}
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM affiliate_programs WHERE id = $1)`, in.AffiliateProgramID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrProgramNotFound
		}
		if in.IsPrimary {
			if _, err := tx.Exec(ctx, `UPDATE affiliate_links SET is_primary = FALSE WHERE tool_id = $1 AND is_primary`, toolID); err != nil {
				return err
			}
		}
		rows, err := tx.Query(ctx, `
			INSERT INTO affiliate_links (tool_id, affiliate_program_id, tracking_url, is_primary)
			VALUES ($1, $2, $3, $4)
			RETURNING `+linkColumns, toolID, in.AffiliateProgramID, in.TrackingURL, in.IsPrimary)
		if err != nil {
			return err
		}
		out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[Link])
		return err
	})
	if err != nil {
		if errors.Is(err, ErrToolNotFound) || errors.Is(err, ErrProgramNotFound) {
			return Link{}, err
		}
		return Link{}, fmt.Errorf("affiliates: create link: %w", err)
	}
	return out, nil
}

// Target prefers the primary link and falls back to the newest one.
func (r *repository) Target(ctx context.Context, toolSlug string) (Target, error) {
	var t Target
	err := r.pool.QueryRow(ctx, `
		SELECT t.id, al.affiliate_program_id, al.tracking_url
		FROM tools t
		JOIN affiliate_links al ON al.tool_id = t.id
		WHERE t.slug = $1 AND t.status = 'published'
		ORDER BY al.is_primary DESC, al.created_at DESC
		LIMIT 1`, toolSlug).Scan(&t.ToolID, &t.ProgramID, &t.TrackingURL)
	if err != nil {
		if db.IsNoRows(err) {
			return Target{}, ErrNoTarget
		}
		return Target{}, fmt.Errorf("affiliates: target: %w", err)
	}
	return t, nil
}

func (r *repository) RecordClick(ctx context.Context, click Click) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clicks (tool_id, affiliate_program_id, user_id, ip_address, user_agent)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))`,
		click.ToolID, click.ProgramID, click.UserID, click.IPAddress, click.UserAgent)
	if err != nil {
		return fmt.Errorf("affiliates: record click: %w", err)
	}
	return nil
}
