// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered user account.
//
// Users log in either with a username/password pair or through GitHub OAuth.
// A password-based account has an empty GitHubID; a GitHub-only account has
// an empty PasswordHash and cannot use the login form.
//
// WHY GitHubID int64 WITH 0 AS "NONE"?
// The github_id column is nullable and UNIQUE. Repositories translate the
// zero value to SQL NULL on write and back to 0 on read, so any number of
// password-only users can coexist without tripping the constraint.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"` // never serialised
	GitHubID     int64     `json:"githubId"  db:"github_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// HasPassword reports whether the account can log in with the password form.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
