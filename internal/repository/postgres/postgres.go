// Package postgres implements the repository interfaces on PostgreSQL via a
// pgx connection pool. It mirrors the sqlite package table for table so the
// two backends are interchangeable behind repository.Store.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sakif/snippetshare/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// SQLSTATE codes for the constraint violations the repositories translate.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// DB owns a pgxpool.Pool and hands out the per-table repositories.
type DB struct {
	pool     *pgxpool.Pool
	snippets *SnippetDB
	comments *CommentDB
	users    *UserDB
}

// New connects to the database named by dsn (URL or key=value form), pings
// it and creates the schema if it is missing.
func New(ctx context.Context, dsn string) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	db := &DB{
		pool:     pool,
		snippets: &SnippetDB{pool: pool},
		comments: &CommentDB{pool: pool},
		users:    &UserDB{pool: pool},
	}

	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}

	return db, nil
}

func (db *DB) Snippets() repository.SnippetRepository { return db.snippets }
func (db *DB) Comments() repository.CommentRepository { return db.comments }
func (db *DB) Users() repository.UserRepository       { return db.users }

func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close releases every pooled connection. It never fails; the error return
// satisfies repository.Store.
func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		github_id     BIGINT UNIQUE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS snippets (
		id          TEXT PRIMARY KEY,
		title       VARCHAR(128) NOT NULL,
		code        TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_by  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_snippets_created_at ON snippets(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_snippets_created_by ON snippets(created_by)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id           TEXT PRIMARY KEY,
		text         TEXT NOT NULL,
		commented_by TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		commented_to TEXT NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
		commented_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_commented_to ON comments(commented_to)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_commented_by ON comments(commented_by)`,
}

// migrate runs the schema statements in one transaction.
func (db *DB) migrate(ctx context.Context) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after Commit

	for _, stmt := range schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool     { return pgErrorCode(err) == codeUniqueViolation }
func isForeignKeyViolation(err error) bool { return pgErrorCode(err) == codeForeignKeyViolation }

func isNoRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }

// checkAffected returns notFound when an UPDATE or DELETE matched no row.
func checkAffected(tag pgconn.CommandTag, notFound error) error {
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

// limitArg maps a zero limit to SQL NULL, which PostgreSQL reads as LIMIT ALL.
func limitArg(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}
