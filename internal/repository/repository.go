// Package repository declares the persistence interfaces the service layer
// depends on. Implementations live in subpackages (sqlite, postgres); the
// services never import them directly.
package repository

import (
	"context"

	"github.com/sakif/snippetshare/internal/model"
)

// ListOptions bounds a listing. A zero Limit means "no limit": the snippet
// list page shows every snippet, while the admin console may cap output.
type ListOptions struct {
	Limit  int
	Offset int
}

// SnippetRepository stores snippets. Reads fill in CreatedByUsername.
type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	// List returns snippets in creation order (oldest first).
	List(ctx context.Context, opts ListOptions) ([]model.Snippet, error)
	Update(ctx context.Context, snippet *model.Snippet) error
	// Delete removes the snippet and, by cascade, its comments.
	Delete(ctx context.Context, id string) error
}

// CommentRepository stores comments. Reads fill in CommentedByUsername.
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	// ListBySnippet returns the snippet's comments, oldest first.
	ListBySnippet(ctx context.Context, snippetID string) ([]model.Comment, error)
	Delete(ctx context.Context, id string) error
}

// UserRepository stores user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	// UpsertGitHub creates or refreshes the account linked to user.GitHubID.
	UpsertGitHub(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	// Delete removes the user together with every snippet they own, every
	// comment on those snippets, and every comment they wrote, in one
	// atomic statement.
	Delete(ctx context.Context, id string) error
}

// Store bundles the repositories of one backend and owns its connection.
type Store interface {
	Snippets() SnippetRepository
	Comments() CommentRepository
	Users() UserRepository
	Ping(ctx context.Context) error
	Close() error
}
