package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/form"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

// CommentService handles business logic for comments.
type CommentService struct {
	snippets  repository.SnippetRepository
	comments  repository.CommentRepository
	validator *form.Validator
	recorder  Recorder
	logger    *slog.Logger
}

// NewCommentService creates a CommentService. recorder may be nil.
func NewCommentService(
	snippets repository.SnippetRepository,
	comments repository.CommentRepository,
	validator *form.Validator,
	recorder Recorder,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{
		snippets:  snippets,
		comments:  comments,
		validator: validator,
		recorder:  orNop(recorder),
		logger:    logger,
	}
}

// Create attaches a comment by authorID to the snippet snippetID.
// A missing snippet is a NotFound even when the form is also invalid.
func (s *CommentService) Create(ctx context.Context, snippetID, authorID string, f form.CommentForm) (*model.Comment, error) {
	if authorID == "" {
		return nil, apperror.Unauthenticated("login required to comment")
	}

	snippet, err := s.snippets.GetByID(ctx, snippetID)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.Validate(f, form.LanguagesFromContext(ctx)...); !errs.Valid() {
		return nil, apperror.Invalid(errs)
	}

	comment := &model.Comment{
		Text:        f.Text,
		CommentedBy: authorID,
		CommentedTo: snippet.ID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		s.logger.Error("failed to create comment",
			slog.String("snippetID", snippet.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	s.recorder.CommentCreated()
	s.logger.Info("comment created",
		slog.String("id", comment.ID),
		slog.String("snippetID", snippet.ID),
		slog.String("commentedBy", authorID),
	)

	return comment, nil
}

// ListBySnippet returns the comments on snippetID, oldest first.
// Returns apperror.ErrNotFound if the snippet doesn't exist.
func (s *CommentService) ListBySnippet(ctx context.Context, snippetID string) ([]model.Comment, error) {
	if _, err := s.snippets.GetByID(ctx, snippetID); err != nil {
		return nil, err
	}
	return s.comments.ListBySnippet(ctx, snippetID)
}

// Delete removes a single comment (admin console only).
func (s *CommentService) Delete(ctx context.Context, id string) error {
	if err := s.comments.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("comment deleted", slog.String("id", id))
	return nil
}
