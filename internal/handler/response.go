package handler

// ERROR RESPONSES:
// Services return apperror values; this file is the one place that decides
// what each of them looks like over HTTP.
//
//	ErrNotFound        → 404, plain text
//	ErrForbidden       → 403, plain text
//	ErrConflict        → 409, plain text
//	ErrUnauthenticated → 302 to the login page
//	anything else      → 500, logged with the request id
//
// Validation errors never reach writeError: handlers catch them with
// fieldErrors and re-render the form.

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/auth"
	"github.com/sakif/snippetshare/internal/form"
)

// maxFormBytes caps a submitted form. The largest valid form holds title,
// code and description at their rune limits, each rune up to four UTF-8
// bytes, each byte percent-encoded as three characters; 64 KiB covers
// field names and the remaining inputs.
const maxFormBytes = (form.MaxTitleLength+2*form.MaxCodeLength)*4*3 + 64<<10

func (rd *Renderer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		writeText(w, http.StatusNotFound, messageOf(err, http.StatusNotFound))
	case errors.Is(err, apperror.ErrForbidden):
		writeText(w, http.StatusForbidden, messageOf(err, http.StatusForbidden))
	case errors.Is(err, apperror.ErrConflict):
		writeText(w, http.StatusConflict, messageOf(err, http.StatusConflict))
	case errors.Is(err, apperror.ErrUnauthenticated):
		target := rd.loginURL + "?next=" + url.QueryEscape(r.URL.RequestURI())
		http.Redirect(w, r, target, http.StatusFound)
	default:
		rd.serverError(w, r, err)
	}
}

// serverError logs err and sends a generic 500. Internal details never
// reach the client.
func (rd *Renderer) serverError(w http.ResponseWriter, r *http.Request, err error) {
	rd.logger.Error("request failed",
		slog.String("requestID", chimiddleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeText(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func writeText(w http.ResponseWriter, status int, msg string) {
	http.Error(w, msg, status)
}

// messageOf returns the AppError message carried by err, or the status text.
func messageOf(err error, status int) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return http.StatusText(status)
}

// fieldErrors extracts per-field validation messages from err.
func fieldErrors(err error) (form.Errors, bool) {
	var fe *apperror.FieldErrors
	if errors.As(err, &fe) {
		return form.Errors(fe.Fields), true
	}
	return nil, false
}

// parseForm reads a POST body of at most maxFormBytes. It writes the error
// response itself and reports whether the handler should continue.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeText(w, http.StatusRequestEntityTooLarge, http.StatusText(http.StatusRequestEntityTooLarge))
			return false
		}
		writeText(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return false
	}
	return true
}

// currentUserID returns the logged-in user's ID, or "" for anonymous requests.
func currentUserID(r *http.Request) string {
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		return id.UserID
	}
	return ""
}
