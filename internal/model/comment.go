package model

import "time"

// Comment is a text reply attached to exactly one snippet.
//
// Both references are mandatory. Deleting the author or the snippet removes
// the comment through the database's ON DELETE CASCADE rules.
type Comment struct {
	ID                  string    `json:"id"                  db:"id"`
	Text                string    `json:"text"                db:"text"`
	CommentedBy         string    `json:"commentedBy"         db:"commented_by"`
	CommentedByUsername string    `json:"commentedByUsername" db:"-"`
	CommentedTo         string    `json:"commentedTo"         db:"commented_to"`
	CommentedAt         time.Time `json:"commentedAt"         db:"commented_at"`
}

func (c *Comment) String() string {
	return c.Text
}
