package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/snippetshare/internal/form"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/service"
)

// CommentHandler serves the comment form of a snippet.
type CommentHandler struct {
	comments *service.CommentService
	snippets *service.SnippetService
	render   *Renderer
	logger   *slog.Logger
}

func NewCommentHandler(
	comments *service.CommentService,
	snippets *service.SnippetService,
	render *Renderer,
	logger *slog.Logger,
) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		snippets: snippets,
		render:   render,
		logger:   logger,
	}
}

type commentNewPage struct {
	Snippet *model.Snippet
	Form    form.CommentForm
	Errors  form.Errors
}

// HandleNewForm renders an empty comment form headed by the snippet title.
//
// HTTP: GET /snippets/{id}/comments/new/
func (h *CommentHandler) HandleNewForm(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.snippets.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.render.writeError(w, r, err)
		return
	}
	h.render.render(w, r, http.StatusOK, "comment_new.html", commentNewPage{Snippet: snippet})
}

// HandleCreate attaches a comment by the current user and redirects back
// to the snippet.
//
// HTTP: POST /snippets/{id}/comments/new/
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	snippetID := chi.URLParam(r, "id")
	f := form.BindComment(r)
	comment, err := h.comments.Create(r.Context(), snippetID, currentUserID(r), f)
	if err != nil {
		errs, ok := fieldErrors(err)
		if !ok {
			h.render.writeError(w, r, err)
			return
		}

		snippet, err := h.snippets.Get(r.Context(), snippetID)
		if err != nil {
			h.render.writeError(w, r, err)
			return
		}
		h.render.render(w, r, http.StatusOK, "comment_new.html", commentNewPage{
			Snippet: snippet,
			Form:    f,
			Errors:  errs,
		})
		return
	}

	http.Redirect(w, r, detailURL(comment.CommentedTo), http.StatusSeeOther)
}
