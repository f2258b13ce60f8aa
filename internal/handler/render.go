package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/sakif/snippetshare/internal/auth"
)

// PAGE TEMPLATES:
// Every page is its own template set made of base.html plus the page file.
// base.html defines the "base" layout and calls {{template "content" .}},
// which each page defines. Parsing the pages separately lets every page
// define "content" (and optionally "title") without clashing.

const baseTemplate = "templates/base.html"

// PageData is what every template receives. Data holds the page-specific
// view model (snippetListPage, loginPage, ...).
type PageData struct {
	SiteTitle string
	LoginURL  string
	Identity  *auth.Identity
	Data      any
}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format("2006/01/02 15:04")
	},
}

// Renderer parses the page templates once at startup and writes HTML and
// error responses for all handlers.
type Renderer struct {
	pages     map[string]*template.Template
	siteTitle string
	loginURL  string
	logger    *slog.Logger
}

// NewRenderer parses templates/*.html from fsys. A template that fails to
// parse is a startup error, not a per-request one.
func NewRenderer(fsys fs.FS, siteTitle, loginURL string, logger *slog.Logger) (*Renderer, error) {
	files, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}

	rd := &Renderer{
		pages:     make(map[string]*template.Template, len(files)),
		siteTitle: siteTitle,
		loginURL:  loginURL,
		logger:    logger,
	}

	for _, file := range files {
		if file == baseTemplate {
			continue
		}
		name := path.Base(file)
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(fsys, baseTemplate, file)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		rd.pages[name] = tmpl
	}

	return rd, nil
}

// render executes page into a buffer first, so a template error still
// produces a clean 500 instead of half a page.
func (rd *Renderer) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	tmpl, ok := rd.pages[page]
	if !ok {
		rd.serverError(w, r, fmt.Errorf("template %q not found", page))
		return
	}

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		identity = nil
	}

	var buf bytes.Buffer
	err := tmpl.ExecuteTemplate(&buf, "base", PageData{
		SiteTitle: rd.siteTitle,
		LoginURL:  rd.loginURL,
		Identity:  identity,
		Data:      data,
	})
	if err != nil {
		rd.serverError(w, r, fmt.Errorf("rendering %s: %w", page, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		rd.logger.Warn("writing response body", slog.String("error", err.Error()))
	}
}
