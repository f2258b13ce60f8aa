package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/xid"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

var _ repository.SnippetRepository = (*SnippetDB)(nil)

// SnippetDB implements repository.SnippetRepository.
type SnippetDB struct {
	pool *pgxpool.Pool
}

const snippetColumns = `
	s.id, s.title, s.code, s.description, s.created_by, u.username,
	s.created_at, s.updated_at`

func scanSnippet(row pgx.Row, s *model.Snippet) error {
	return row.Scan(
		&s.ID, &s.Title, &s.Code, &s.Description,
		&s.CreatedBy, &s.CreatedByUsername,
		&s.CreatedAt, &s.UpdatedAt,
	)
}

func (db *SnippetDB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()

	// PostgreSQL stores microseconds; truncating keeps the struct equal to
	// what a later read returns.
	now := time.Now().UTC().Truncate(time.Microsecond)
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	_, err := db.pool.Exec(ctx,
		`INSERT INTO snippets (id, title, code, description, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
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
		return fmt.Errorf("postgres: creating snippet: %w", err)
	}

	return nil
}

func (db *SnippetDB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	var snippet model.Snippet

	row := db.pool.QueryRow(ctx,
		`SELECT`+snippetColumns+`
		 FROM snippets s
		 JOIN users u ON u.id = s.created_by
		 WHERE s.id = $1`,
		id,
	)
	if err := scanSnippet(row, &snippet); err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("postgres: getting snippet %s: %w", id, err)
	}

	return &snippet, nil
}

// List returns snippets oldest first. A zero opts.Limit returns every row.
func (db *SnippetDB) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	offset := max(opts.Offset, 0)

	rows, err := db.pool.Query(ctx,
		`SELECT`+snippetColumns+`
		 FROM snippets s
		 JOIN users u ON u.id = s.created_by
		 ORDER BY s.created_at ASC, s.id ASC
		 LIMIT $1 OFFSET $2`,
		limitArg(opts.Limit),
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0)
	for rows.Next() {
		var s model.Snippet
		if err := scanSnippet(rows, &s); err != nil {
			return nil, fmt.Errorf("postgres: scanning snippet row: %w", err)
		}
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating snippets: %w", err)
	}

	return snippets, nil
}

func (db *SnippetDB) Update(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	tag, err := db.pool.Exec(ctx,
		`UPDATE snippets
		 SET title = $1, code = $2, description = $3, updated_at = $4
		 WHERE id = $5`,
		snippet.Title,
		snippet.Code,
		snippet.Description,
		snippet.UpdatedAt,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating snippet %s: %w", snippet.ID, err)
	}

	return checkAffected(tag, apperror.NotFound("snippet", snippet.ID))
}

func (db *SnippetDB) Delete(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM snippets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting snippet %s: %w", id, err)
	}

	return checkAffected(tag, apperror.NotFound("snippet", id))
}
