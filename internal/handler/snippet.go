package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/snippetshare/internal/form"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
	"github.com/sakif/snippetshare/internal/service"
)

// SnippetHandler serves the snippet pages: list, create, detail and edit.
//
// Handlers only translate between HTTP and the service layer. Every rule
// (validation, ownership, existence) lives in service.SnippetService, and
// errors are mapped to responses by Renderer.writeError.
type SnippetHandler struct {
	snippets *service.SnippetService
	render   *Renderer
	logger   *slog.Logger
}

func NewSnippetHandler(snippets *service.SnippetService, render *Renderer, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{
		snippets: snippets,
		render:   render,
		logger:   logger,
	}
}

type snippetListPage struct {
	Snippets []model.Snippet
}

type snippetNewPage struct {
	Form   form.SnippetForm
	Errors form.Errors
}

type snippetEditPage struct {
	SnippetID string
	Form      form.SnippetEditForm
	Errors    form.Errors
}

type snippetDetailPage struct {
	Snippet  *model.Snippet
	Comments []model.Comment
	CanEdit  bool
}

// HandleTop lists every snippet.
//
// HTTP: GET /
func (h *SnippetHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.snippets.List(r.Context(), repository.ListOptions{})
	if err != nil {
		h.render.writeError(w, r, err)
		return
	}
	h.render.render(w, r, http.StatusOK, "top.html", snippetListPage{Snippets: snippets})
}

// HandleNewForm renders an empty creation form.
//
// HTTP: GET /snippets/new/
func (h *SnippetHandler) HandleNewForm(w http.ResponseWriter, r *http.Request) {
	h.render.render(w, r, http.StatusOK, "snippet_new.html", snippetNewPage{})
}

// HandleCreate saves a new snippet owned by the current user and redirects
// to its detail page. Invalid input re-renders the form with the submitted
// values and per-field messages.
//
// HTTP: POST /snippets/new/
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	f := form.BindSnippet(r)
	snippet, err := h.snippets.Create(r.Context(), currentUserID(r), f)
	if err != nil {
		if errs, ok := fieldErrors(err); ok {
			h.render.render(w, r, http.StatusOK, "snippet_new.html", snippetNewPage{Form: f, Errors: errs})
			return
		}
		h.render.writeError(w, r, err)
		return
	}

	// 303 See Other: the browser follows with a GET, so reloading the
	// detail page never re-submits the form.
	http.Redirect(w, r, detailURL(snippet.ID), http.StatusSeeOther)
}

// HandleDetail shows one snippet with its comments.
//
// HTTP: GET /snippets/{id}/
func (h *SnippetHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.snippets.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.render.writeError(w, r, err)
		return
	}

	h.render.render(w, r, http.StatusOK, "snippet_detail.html", snippetDetailPage{
		Snippet:  detail.Snippet,
		Comments: detail.Comments,
		CanEdit:  detail.Snippet.IsOwnedBy(currentUserID(r)),
	})
}

// HandleEditForm renders the edit form pre-filled with the current title
// and code. Only the owner gets this far; anyone else sees 403.
//
// HTTP: GET /snippets/{id}/edit/
func (h *SnippetHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.snippets.GetForEdit(r.Context(), chi.URLParam(r, "id"), currentUserID(r))
	if err != nil {
		h.render.writeError(w, r, err)
		return
	}

	h.render.render(w, r, http.StatusOK, "snippet_edit.html", snippetEditPage{
		SnippetID: snippet.ID,
		Form:      form.SnippetEditFormFrom(snippet),
	})
}

// HandleUpdate applies the edit form and redirects to the detail page.
//
// HTTP: POST /snippets/{id}/edit/
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	id := chi.URLParam(r, "id")
	f := form.BindSnippetEdit(r)
	snippet, err := h.snippets.Update(r.Context(), id, currentUserID(r), f)
	if err != nil {
		if errs, ok := fieldErrors(err); ok {
			h.render.render(w, r, http.StatusOK, "snippet_edit.html", snippetEditPage{
				SnippetID: id,
				Form:      f,
				Errors:    errs,
			})
			return
		}
		h.render.writeError(w, r, err)
		return
	}

	http.Redirect(w, r, detailURL(snippet.ID), http.StatusSeeOther)
}

func detailURL(id string) string {
	return "/snippets/" + id + "/"
}
