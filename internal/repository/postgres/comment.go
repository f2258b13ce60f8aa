package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/xid"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

var _ repository.CommentRepository = (*CommentDB)(nil)

// CommentDB implements repository.CommentRepository.
type CommentDB struct {
	pool *pgxpool.Pool
}

func (db *CommentDB) Create(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()
	comment.CommentedAt = time.Now().UTC().Truncate(time.Microsecond)

	_, err := db.pool.Exec(ctx,
		`INSERT INTO comments (id, text, commented_by, commented_to, commented_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		comment.ID,
		comment.Text,
		comment.CommentedBy,
		comment.CommentedTo,
		comment.CommentedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("snippet", comment.CommentedTo)
		}
		return fmt.Errorf("postgres: creating comment: %w", err)
	}

	return nil
}

func (db *CommentDB) ListBySnippet(ctx context.Context, snippetID string) ([]model.Comment, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT c.id, c.text, c.commented_by, u.username, c.commented_to, c.commented_at
		 FROM comments c
		 JOIN users u ON u.id = c.commented_by
		 WHERE c.commented_to = $1
		 ORDER BY c.commented_at ASC, c.id ASC`,
		snippetID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing comments for snippet %s: %w", snippetID, err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(
			&c.ID, &c.Text, &c.CommentedBy, &c.CommentedByUsername,
			&c.CommentedTo, &c.CommentedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating comments: %w", err)
	}

	return comments, nil
}

func (db *CommentDB) Delete(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting comment %s: %w", id, err)
	}

	return checkAffected(tag, apperror.NotFound("comment", id))
}
