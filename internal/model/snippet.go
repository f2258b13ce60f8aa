// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Snippet represents a saved code snippet owned by exactly one user.
//
// CreatedBy holds the owning user's internal ID. CreatedByUsername is not a
// column on the snippets table: repositories fill it in with a JOIN on read
// so list and detail pages can show who posted the snippet without a second
// query per row.
type Snippet struct {
	ID                string    `json:"id"                db:"id"`
	Title             string    `json:"title"             db:"title"`
	Code              string    `json:"code"              db:"code"`
	Description       string    `json:"description"       db:"description"`
	CreatedBy         string    `json:"createdBy"         db:"created_by"`
	CreatedByUsername string    `json:"createdByUsername" db:"-"`
	CreatedAt         time.Time `json:"createdAt"         db:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt"         db:"updated_at"`
}

// IsOwnedBy reports whether userID is the snippet's owner.
// Ownership is the only access-control predicate for mutating a snippet.
func (s *Snippet) IsOwnedBy(userID string) bool {
	return userID != "" && s.CreatedBy == userID
}

// String returns the title, which is how snippets are labelled in the admin console.
func (s *Snippet) String() string {
	return s.Title
}
