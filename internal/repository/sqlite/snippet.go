package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` fails to compile if *Y stops implementing X.
var _ repository.SnippetRepository = (*SnippetDB)(nil)

// SnippetDB implements repository.SnippetRepository.
type SnippetDB struct {
	conn *sql.DB
}

// snippetColumns is shared by every SELECT so scanSnippet's argument order
// only has to be kept in sync in one place.
const snippetColumns = `
	s.id, s.title, s.code, s.description, s.created_by, u.username,
	s.created_at, s.updated_at`

func scanSnippet(row scanner, s *model.Snippet) error {
	return row.Scan(
		&s.ID, &s.Title, &s.Code, &s.Description,
		&s.CreatedBy, &s.CreatedByUsername,
		&s.CreatedAt, &s.UpdatedAt,
	)
}

// Create inserts a new snippet. It generates the ID (xid: 20 chars, URL-safe,
// sortable by creation time) and both timestamps, writing them back into
// the caller's struct.
//
// A CreatedBy that does not name an existing user violates the foreign key
// and comes back as a NotFound for that user.
func (db *SnippetDB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()

	now := time.Now().UTC()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO snippets (id, title, code, description, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Title,
		snippet.Code,
		snippet.Description,
		snippet.CreatedBy,
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", snippet.CreatedBy)
		}
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

// GetByID retrieves a single snippet by its ID.
// sql.ErrNoRows is translated to apperror.NotFound so the handler can answer 404.
func (db *SnippetDB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	var snippet model.Snippet

	row := db.conn.QueryRowContext(ctx,
		`SELECT`+snippetColumns+`
		 FROM snippets s
		 JOIN users u ON u.id = s.created_by
		 WHERE s.id = ?`,
		id,
	)
	if err := scanSnippet(row, &snippet); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	return &snippet, nil
}

// List returns snippets oldest first. A zero opts.Limit returns every row.
//
// SQLite treats a negative LIMIT as "no limit", which lets one query serve
// both the unpaginated list page and the capped admin listing.
func (db *SnippetDB) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT`+snippetColumns+`
		 FROM snippets s
		 JOIN users u ON u.id = s.created_by
		 ORDER BY s.created_at ASC, s.id ASC
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	// CRITICAL: always close rows when done, an open *sql.Rows pins a pool connection.
	defer rows.Close()

	snippets := make([]model.Snippet, 0)
	for rows.Next() {
		var s model.Snippet
		if err := scanSnippet(rows, &s); err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

// Update writes title, code and description and refreshes updated_at.
// id, created_by and created_at are immutable.
func (db *SnippetDB) Update(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, code = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		snippet.Title,
		snippet.Code,
		snippet.Description,
		snippet.UpdatedAt,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	return checkAffected(result, apperror.NotFound("snippet", snippet.ID))
}

// Delete removes a snippet; its comments go with it (ON DELETE CASCADE).
func (db *SnippetDB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM snippets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	return checkAffected(result, apperror.NotFound("snippet", id))
}
