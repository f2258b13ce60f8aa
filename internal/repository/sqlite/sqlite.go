// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code, no C compiler needed, works everywhere Go works.
//
// DATABASE/SQL OVERVIEW:
// Go's standard library provides "database/sql", a generic interface for SQL databases.
// Key types:
//   - sql.DB: a connection pool (NOT a single connection!)
//   - sql.Row: a single result row
//   - sql.Rows: multiple result rows (must be closed!)
//
// REFERENTIAL INTEGRITY:
// Snippets reference their owner and comments reference both their author and
// their snippet, all with ON DELETE CASCADE. Deleting a user is therefore one
// DELETE statement that SQLite applies atomically to every dependent row.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/snippetshare/internal/repository"
)

// compile-time check that *DB implements repository.Store
var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and hands out the per-table repositories.
type DB struct {
	conn     *sql.DB
	snippets *SnippetDB
	comments *CommentDB
	users    *UserDB
}

// New opens (creating if needed) the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/snippets.db"  → file-based database (persistent)
//   - ":memory:"          → in-memory database (great for tests, lost on close)
//
// PRAGMAS PER CONNECTION:
// foreign_keys is a per-connection setting in SQLite and is OFF by default.
// A one-off `PRAGMA foreign_keys=ON` would only reach whichever pooled
// connection ran it, so the pragmas go into the DSN: the driver applies them
// to every connection it opens.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each connection to ":memory:" is a separate, empty database.
	// Pin the pool to one connection so every query sees the same tables.
	if isMemory(dbPath) {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{
		conn:     conn,
		snippets: &SnippetDB{conn: conn},
		comments: &CommentDB{conn: conn},
		users:    &UserDB{conn: conn},
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

func (db *DB) Snippets() repository.SnippetRepository { return db.snippets }
func (db *DB) Comments() repository.CommentRepository { return db.comments }
func (db *DB) Users() repository.UserRepository       { return db.users }

// Ping verifies the database is reachable; used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS makes it safe to run
// on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER UNIQUE,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS snippets (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			code        TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			created_by  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_snippets_created_at ON snippets(created_at);
		CREATE INDEX IF NOT EXISTS idx_snippets_created_by ON snippets(created_by);
	`)
	if err != nil {
		return fmt.Errorf("creating snippets table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS comments (
			id           TEXT PRIMARY KEY,
			text         TEXT NOT NULL,
			commented_by TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			commented_to TEXT NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
			commented_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_comments_commented_to ON comments(commented_to);
		CREATE INDEX IF NOT EXISTS idx_comments_commented_by ON comments(commented_by);
	`)
	if err != nil {
		return fmt.Errorf("creating comments table: %w", err)
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows so one scan function
// serves single-row lookups and listings.
type scanner interface {
	Scan(dest ...any) error
}

// constraintCode returns the extended SQLite result code of a constraint
// violation, or 0 if err is not one.
func constraintCode(err error) int {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		return serr.Code()
	}
	return 0
}

func isUniqueViolation(err error) bool {
	code := constraintCode(err)
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func isForeignKeyViolation(err error) bool {
	return constraintCode(err) == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

// checkAffected returns notFound when an UPDATE or DELETE matched no row.
func checkAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
