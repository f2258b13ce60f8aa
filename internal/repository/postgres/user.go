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

var _ repository.UserRepository = (*UserDB)(nil)

// UserDB implements repository.UserRepository.
type UserDB struct {
	pool *pgxpool.Pool
}

const userColumns = `id, username, email, password_hash, github_id, created_at, updated_at`

func scanUser(row pgx.Row, u *model.User) error {
	var githubID *int64
	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&githubID, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return err
	}
	u.GitHubID = 0
	if githubID != nil {
		u.GitHubID = *githubID
	}
	return nil
}

// nullableGitHubID stores 0 as NULL so UNIQUE only binds linked accounts.
func nullableGitHubID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func (db *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, github_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
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
		return fmt.Errorf("postgres: inserting user %q: %w", user.Username, err)
	}

	return nil
}

// UpsertGitHub inserts or refreshes the account linked to user.GitHubID.
// The statement is a single INSERT ... ON CONFLICT, so two concurrent first
// logins for the same GitHub account cannot both insert.
func (db *UserDB) UpsertGitHub(ctx context.Context, user *model.User) error {
	if user.GitHubID == 0 {
		return apperror.ValidationFailed("github_id", "GitHub ID is required")
	}

	now := time.Now().UTC().Truncate(time.Microsecond)

	err := scanUser(db.pool.QueryRow(ctx,
		`INSERT INTO users (id, username, email, github_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (github_id) DO UPDATE
		 SET username = EXCLUDED.username,
		     email = EXCLUDED.email,
		     updated_at = EXCLUDED.updated_at
		 RETURNING `+userColumns,
		xid.New().String(),
		user.Username,
		user.Email,
		user.GitHubID,
		now,
	), user)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("postgres: upserting github user %d: %w", user.GitHubID, err)
	}

	return nil
}

func (db *UserDB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	), &u)
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}

	return &u, nil
}

func (db *UserDB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User

	err := scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username,
	), &u)
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("postgres: getting user %q: %w", username, err)
	}

	return &u, nil
}

func (db *UserDB) List(ctx context.Context) ([]model.User, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY username ASC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("postgres: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating users: %w", err)
	}

	return users, nil
}

// Delete removes a user; foreign keys cascade to snippets and comments.
func (db *UserDB) Delete(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting user %s: %w", id, err)
	}

	return checkAffected(tag, apperror.NotFound("user", id))
}
