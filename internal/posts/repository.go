package posts

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

// Repository persists posts and tags.
type Repository interface {
	ListTags(ctx context.Context) ([]Tag, error)
	CreateTag(ctx context.Context, in TagInput) (Tag, error)

	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Post, int, error)
	GetBySlug(ctx context.Context, slug string, statuses []string) (Post, error)
	Tags(ctx context.Context, postID uuid.UUID) ([]TagRef, error)
	Tools(ctx context.Context, postID uuid.UUID) ([]ToolRef, error)

	Create(ctx context.Context, in CreateInput, authorID uuid.UUID) (Post, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (Post, error)
	SetPublication(ctx context.Context, id uuid.UUID, pub shared.Publication) (Post, error)
	AttachTags(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error
	ReplaceTools(ctx context.Context, postID uuid.UUID, links []ToolLink) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const postColumns = `p.id, p.title, p.slug, COALESCE(p.excerpt, ''), COALESCE(p.content, ''),
	COALESCE(p.cover_image_url, ''), p.status, p.post_type, p.published_at, p.author_id,
	p.created_at, p.updated_at`

func scanPost(row pgx.Row) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.CoverImageURL,
		&p.Status, &p.PostType, &p.PublishedAt, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func mapPostErr(op string, err error) error {
	switch {
	case db.IsNoRows(err):
		return ErrNotFound
	case db.IsUniqueViolation(err, "posts_slug_unique"):
		return ErrSlugTaken
	}
	return fmt.Errorf("posts: %s: %w", op, err)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *repository) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug, created_at FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("posts: list tags: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Tag])
}

func (r *repository) CreateTag(ctx context.Context, in TagInput) (Tag, error) {
	var t Tag
	err := r.pool.QueryRow(ctx, `INSERT INTO tags (name, slug) VALUES ($1, $2) RETURNING id, name, slug, created_at`, in.Name, in.Slug).
		Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "tags_slug_unique") {
			return Tag{}, ErrTagSlugTaken
		}
		return Tag{}, fmt.Errorf("posts: create tag: %w", err)
	}
	return t, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Post, int, error) {
	args := []any{filter.Scope.Statuses()}
	where := []string{"p.status = ANY($1)"}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, fmt.Sprintf("p.post_type = $%d", len(args)))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		where = append(where, fmt.Sprintf("(p.title ILIKE $%[1]d OR p.excerpt ILIKE $%[1]d)", len(args)))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		where = append(where, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
			WHERE pt.post_id = p.id AND t.slug = $%d)`, len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts p WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("posts: count: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM posts p WHERE %s
		ORDER BY p.published_at DESC NULLS LAST, p.created_at DESC
		LIMIT $%d OFFSET $%d`, postColumns, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("posts: list: %w", err)
	}
	defer rows.Close()
	out := make([]Post, 0, limit)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("posts: scan: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) GetBySlug(ctx context.Context, slug string, statuses []string) (Post, error) {
	p, err := scanPost(r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.slug = $1 AND p.status = ANY($2)`, slug, statuses))
	if err != nil {
		return Post{}, mapPostErr("get by slug", err)
	}
	return p, nil
}

func (r *repository) Tags(ctx context.Context, postID uuid.UUID) ([]TagRef, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.name, t.slug FROM post_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id = $1 ORDER BY t.name`, postID)
	if err != nil {
		return nil, fmt.Errorf("posts: tags: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[TagRef])
}

func (r *repository) Tools(ctx context.Context, postID uuid.UUID) ([]ToolRef, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.name, t.slug, pt.sort_order FROM post_tools pt
		JOIN tools t ON t.id = pt.tool_id
		WHERE pt.post_id = $1 ORDER BY pt.sort_order, t.name`, postID)
	if err != nil {
		return nil, fmt.Errorf("posts: tools: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[ToolRef])
}

func (r *repository) Create(ctx context.Context, in CreateInput, authorID uuid.UUID) (Post, error) {
	var author *uuid.UUID
	if authorID != uuid.Nil {
		author = &authorID
	}
	p, err := scanPost(r.pool.QueryRow(ctx, `
		WITH p AS (
			INSERT INTO posts (title, slug, excerpt, content, cover_image_url, post_type, author_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING *
		)
		SELECT `+postColumns+` FROM p`,
		in.Title, in.Slug, nullable(in.Excerpt), nullable(in.Content), nullable(in.CoverImageURL), in.PostType, author))
	if err != nil {
		return Post{}, mapPostErr("create", err)
	}
	return p, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, patch Patch) (Post, error) {
	u := db.NewUpdate("posts p")
	if patch.Title != nil {
		u.Set("title", *patch.Title)
	}
	if patch.Slug != nil {
		u.Set("slug", *patch.Slug)
	}
	if patch.Excerpt != nil {
		u.Set("excerpt", nullable(*patch.Excerpt))
	}
	if patch.Content != nil {
		u.Set("content", nullable(*patch.Content))
	}
	if patch.CoverImageURL != nil {
		u.Set("cover_image_url", nullable(*patch.CoverImageURL))
	}
	if patch.PostType != nil {
		u.Set("post_type", *patch.PostType)
	}
	if u.Empty() {
		p, err := scanPost(r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = $1`, id))
		if err != nil {
			return Post{}, mapPostErr("get", err)
		}
		return p, nil
	}
	u.SetRaw("updated_at = NOW()")
	query, args := u.Build(id, postColumns)
	p, err := scanPost(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return Post{}, mapPostErr("update", err)
	}
	return p, nil
}

func (r *repository) SetPublication(ctx context.Context, id uuid.UUID, pub shared.Publication) (Post, error) {
	p, err := scanPost(r.pool.QueryRow(ctx, `
		UPDATE posts p SET status = $2, published_at = $3, updated_at = NOW()
		WHERE p.id = $1 RETURNING `+postColumns, id, pub.Status, pub.PublishedAt))
	if err != nil {
		return Post{}, mapPostErr("set publication", err)
	}
	return p, nil
}

func (r *repository) lockPost(ctx context.Context, tx pgx.Tx, postID uuid.UUID) error {
	var id uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM posts WHERE id = $1 FOR UPDATE`, postID).Scan(&id); err != nil {
		if db.IsNoRows(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (r *repository) AttachTags(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := r.lockPost(ctx, tx, postID); err != nil {
			return err
		}
		for _, tagID := range tagIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, postID, tagID); err != nil {
				if db.IsForeignKeyViolation(err, "") {
					return ErrUnknownTag
				}
				return err
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrUnknownTag) {
		return fmt.Errorf("posts: attach tags: %w", err)
	}
	return err
}

// ReplaceTools swaps the featured tool list atomically.
func (r *repository) ReplaceTools(ctx context.Context, postID uuid.UUID, links []ToolLink) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := r.lockPost(ctx, tx, postID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM post_tools WHERE post_id = $1`, postID); err != nil {
			return err
		}
		for i, link := range links {
			order := i
			if link.SortOrder != nil {
				order = *link.SortOrder
			}
			if _, err := tx.Exec(ctx, `INSERT INTO post_tools (post_id, tool_id, sort_order) VALUES ($1, $2, $3)`, postID, link.ToolID, order); err != nil {
				if db.IsForeignKeyViolation(err, "") {
					return ErrUnknownTool
				}
				return err
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrUnknownTool) {
		return fmt.Errorf("posts: replace tools: %w", err)
	}
	return err
}
