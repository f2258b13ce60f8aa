// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services accept form structs and IDs, never *http.Request, so the admin
// console (internal/cli) reuses exactly the same rules as the web handlers.
// They return apperror values; the handler decides what status each maps to.
//
// DEPENDENCY INJECTION:
// Services take repository interfaces, not *sqlite.DB, so tests pass
// in-memory fakes and the server can switch to Postgres by configuration.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/form"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

// SnippetService handles business logic for code snippets.
type SnippetService struct {
	snippets  repository.SnippetRepository
	comments  repository.CommentRepository
	validator *form.Validator
	recorder  Recorder
	logger    *slog.Logger
}

// NewSnippetService creates a new SnippetService. recorder may be nil.
func NewSnippetService(
	snippets repository.SnippetRepository,
	comments repository.CommentRepository,
	validator *form.Validator,
	recorder Recorder,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		snippets:  snippets,
		comments:  comments,
		validator: validator,
		recorder:  orNop(recorder),
		logger:    logger,
	}
}

// SnippetDetail is a snippet together with its comments, oldest first.
type SnippetDetail struct {
	Snippet  *model.Snippet
	Comments []model.Comment
}

// List returns snippets in creation order. The list page passes a zero
// ListOptions and gets every snippet.
func (s *SnippetService) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	snippets, err := s.snippets.List(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	return snippets, nil
}

// Create validates f and saves a new snippet owned by ownerID.
//
// Validation failures come back as *apperror.FieldErrors with messages in
// the languages stored on ctx (see form.WithLanguages); nothing is written.
func (s *SnippetService) Create(ctx context.Context, ownerID string, f form.SnippetForm) (*model.Snippet, error) {
	if ownerID == "" {
		return nil, apperror.Unauthenticated("login required to create a snippet")
	}

	if errs := s.validator.Validate(f, form.LanguagesFromContext(ctx)...); !errs.Valid() {
		return nil, apperror.Invalid(errs)
	}

	snippet := &model.Snippet{CreatedBy: ownerID}
	f.Apply(snippet)

	if err := s.snippets.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("title", snippet.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.recorder.SnippetCreated()
	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("createdBy", ownerID),
	)

	return snippet, nil
}

// Get retrieves a snippet by its ID.
// Returns apperror.ErrNotFound if the snippet doesn't exist.
func (s *SnippetService) Get(ctx context.Context, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.NotFound("snippet", id)
	}

	// NotFound is a normal outcome here, not worth an error log line.
	return s.snippets.GetByID(ctx, id)
}

// Detail returns the snippet and every comment attached to it.
func (s *SnippetService) Detail(ctx context.Context, id string) (*SnippetDetail, error) {
	snippet, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.ListBySnippet(ctx, snippet.ID)
	if err != nil {
		return nil, fmt.Errorf("loading comments for snippet %s: %w", snippet.ID, err)
	}

	return &SnippetDetail{Snippet: snippet, Comments: comments}, nil
}

// GetForEdit loads a snippet that userID is about to edit.
// Ownership is the only access rule: anyone else gets apperror.ErrForbidden.
func (s *SnippetService) GetForEdit(ctx context.Context, id, userID string) (*model.Snippet, error) {
	snippet, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !snippet.IsOwnedBy(userID) {
		s.logger.Warn("snippet edit refused",
			slog.String("id", snippet.ID),
			slog.String("userID", userID),
		)
		return nil, apperror.Forbidden("you can only edit your own snippets")
	}

	return snippet, nil
}

// Update applies the edit form to the snippet.
//
// Order matters: existence (404), then ownership (403), then validation.
// A non-owner is refused before their input is even looked at. Only title
// and code change; description and created_by are left as they are.
func (s *SnippetService) Update(ctx context.Context, id, userID string, f form.SnippetEditForm) (*model.Snippet, error) {
	snippet, err := s.GetForEdit(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.Validate(f, form.LanguagesFromContext(ctx)...); !errs.Valid() {
		return nil, apperror.Invalid(errs)
	}

	f.Apply(snippet)

	if err := s.snippets.Update(ctx, snippet); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", snippet.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.recorder.SnippetUpdated()
	s.logger.Info("snippet updated", slog.String("id", snippet.ID))

	return snippet, nil
}

// Delete removes a snippet and its comments. There is no HTTP route for it;
// the admin console calls it.
func (s *SnippetService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.NotFound("snippet", id)
	}

	if err := s.snippets.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.String("id", id))
	return nil
}
