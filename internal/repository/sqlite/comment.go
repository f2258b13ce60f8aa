package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

var _ repository.CommentRepository = (*CommentDB)(nil)

// CommentDB implements repository.CommentRepository.
type CommentDB struct {
	conn *sql.DB
}

// Create inserts a comment. Both references must exist; a dangling one is
// reported as NotFound for the snippet, the only reference a caller can
// realistically get wrong.
func (db *CommentDB) Create(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()
	comment.CommentedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (id, text, commented_by, commented_to, commented_at)
		 VALUES (?, ?, ?, ?, ?)`,
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
		return fmt.Errorf("sqlite: creating comment: %w", err)
	}

	return nil
}

// ListBySnippet returns every comment whose commented_to is snippetID,
// oldest first, with the author's username.
func (db *CommentDB) ListBySnippet(ctx context.Context, snippetID string) ([]model.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.id, c.text, c.commented_by, u.username, c.commented_to, c.commented_at
		 FROM comments c
		 JOIN users u ON u.id = c.commented_by
		 WHERE c.commented_to = ?
		 ORDER BY c.commented_at ASC, c.id ASC`,
		snippetID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for snippet %s: %w", snippetID, err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(
			&c.ID, &c.Text, &c.CommentedBy, &c.CommentedByUsername,
			&c.CommentedTo, &c.CommentedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}

	return comments, nil
}

func (db *CommentDB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %s: %w", id, err)
	}

	return checkAffected(result, apperror.NotFound("comment", id))
}
