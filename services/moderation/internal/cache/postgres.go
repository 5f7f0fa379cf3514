package cache

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/comments-console/services/moderation/internal/comment"
)

// Postgres persists the per-scope comment cache in Postgres.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a cache backed by Postgres.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) LoadCached(ctx context.Context, scopeID string) ([]comment.Comment, error) {
	const q = `SELECT comment_id, status, author, author_email, content, post_title, posted_at
	           FROM cached_comments WHERE scope_id = $1 ORDER BY position`
	rows, err := p.pool.Query(ctx, q, scopeID)
	if err != nil {
		// The cache table might not exist before migrations in local dev.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	var out []comment.Comment
	for rows.Next() {
		c := comment.Comment{ScopeID: scopeID}
		var status string
		if err := rows.Scan(&c.ID, &status, &c.Author, &c.AuthorEmail, &c.Content, &c.PostTitle, &c.PostedAt); err != nil {
			return nil, err
		}
		c.Status = comment.Status(status)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) ReplaceAll(ctx context.Context, scopeID string, comments []comment.Comment) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM cached_comments WHERE scope_id = $1`, scopeID); err != nil {
		return err
	}
	for i, c := range comments {
		if err := insertAt(ctx, tx, scopeID, c, i); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (p *Postgres) Upsert(ctx context.Context, scopeID string, comments []comment.Comment) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var next int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(position)+1, 0) FROM cached_comments WHERE scope_id = $1`, scopeID,
	).Scan(&next); err != nil {
		return err
	}
	for _, c := range comments {
		if err := insertAt(ctx, tx, scopeID, c, next); err != nil {
			return err
		}
		next++
	}
	return tx.Commit(ctx)
}

// insertAt inserts one row; an existing row keeps its position and only
// refreshes the mutable columns.
func insertAt(ctx context.Context, tx execer, scopeID string, c comment.Comment, pos int) error {
	const q = `INSERT INTO cached_comments
	             (scope_id, comment_id, status, author, author_email, content, post_title, posted_at, position)
	           VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	           ON CONFLICT (scope_id, comment_id) DO UPDATE SET
	             status = EXCLUDED.status,
	             author = EXCLUDED.author,
	             author_email = EXCLUDED.author_email,
	             content = EXCLUDED.content,
	             post_title = EXCLUDED.post_title,
	             posted_at = EXCLUDED.posted_at`
	_, err := tx.Exec(ctx, q, scopeID, c.ID, string(c.Status), c.Author, c.AuthorEmail, c.Content, c.PostTitle, c.PostedAt, pos)
	return err
}

func (p *Postgres) Remove(ctx context.Context, scopeID string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := p.pool.Exec(ctx,
		`DELETE FROM cached_comments WHERE scope_id = $1 AND comment_id = ANY($2)`, scopeID, ids)
	return err
}

func (p *Postgres) DeleteAbsent(ctx context.Context, scopeID string, keep []int64) error {
	if len(keep) == 0 {
		_, err := p.pool.Exec(ctx, `DELETE FROM cached_comments WHERE scope_id = $1`, scopeID)
		return err
	}
	_, err := p.pool.Exec(ctx,
		`DELETE FROM cached_comments WHERE scope_id = $1 AND NOT (comment_id = ANY($2))`, scopeID, keep)
	return err
}

// execer is the subset of pgx transaction behaviour insertAt needs.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
