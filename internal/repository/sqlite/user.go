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

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB implements repository.UserRepository.
type UserDB struct {
	conn *sql.DB
}

const userColumns = `id, username, email, password_hash, github_id, created_at, updated_at`

func scanUser(row scanner, u *model.User) error {
	var githubID sql.NullInt64
	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&githubID, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return err
	}
	u.GitHubID = githubID.Int64
	return nil
}

// nullableGitHubID stores 0 as NULL so the UNIQUE constraint only applies to
// accounts that are actually linked to GitHub.
func nullableGitHubID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

// Create inserts a new user. A taken username (or GitHub ID) is a Conflict.
func (db *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, github_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		nullableGitHubID(user.GitHubID),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	return nil
}

// UpsertGitHub inserts or updates a user based on their GitHub ID.
//
// An existing account keeps its internal ID and password hash; only the
// profile fields GitHub owns (username, email) are refreshed. After the
// call the caller's struct holds the canonical record.
func (db *UserDB) UpsertGitHub(ctx context.Context, user *model.User) error {
	if user.GitHubID == 0 {
		return apperror.ValidationFailed("github_id", "GitHub ID is required")
	}

	var existing model.User
	err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE github_id = ?`, user.GitHubID,
	), &existing)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return db.Create(ctx, user)
	case err != nil:
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	existing.Username = user.Username
	existing.Email = user.Email
	existing.UpdatedAt = time.Now().UTC()

	_, err = db.conn.ExecContext(ctx,
		`UPDATE users SET username = ?, email = ?, updated_at = ? WHERE id = ?`,
		existing.Username,
		existing.Email,
		existing.UpdatedAt,
		existing.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: updating user %s: %w", existing.ID, err)
	}

	*user = existing
	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *UserDB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	), &u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}

// GetByUsername retrieves a user by their login name (case-sensitive).
func (db *UserDB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User

	err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username,
	), &u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user %q: %w", username, err)
	}

	return &u, nil
}

// List returns every user ordered by username.
func (db *UserDB) List(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY username ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// Delete removes a user. The foreign keys cascade to the user's snippets,
// the comments on those snippets, and the comments the user wrote.
func (db *UserDB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	return checkAffected(result, apperror.NotFound("user", id))
}
