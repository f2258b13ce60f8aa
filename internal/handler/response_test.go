package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/auth"
	"github.com/sakif/snippetshare/web"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rd, err := NewRenderer(web.FS, "テストサイト", "/accounts/login/", logger)
	require.NoError(t, err)
	return rd
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "not found",
			err:      fmt.Errorf("loading: %w", apperror.NotFound("snippet", "abc")),
			wantCode: http.StatusNotFound,
			wantBody: "snippet not found with id abc",
		},
		{
			name:     "forbidden",
			err:      apperror.Forbidden("you can only edit your own snippets"),
			wantCode: http.StatusForbidden,
			wantBody: "you can only edit your own snippets",
		},
		{
			name:     "conflict",
			err:      apperror.Conflict("user", "octocat"),
			wantCode: http.StatusConflict,
			wantBody: "user conflict with id octocat",
		},
		{
			name:     "internal details stay hidden",
			err:      errors.New("database is locked"),
			wantCode: http.StatusInternalServerError,
			wantBody: "Internal Server Error",
		},
	}

	rd := newTestRenderer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/snippets/abc/", nil)
			rec := httptest.NewRecorder()

			rd.writeError(rec, req, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantBody, strings.TrimSpace(rec.Body.String()))
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
		})
	}
}

func TestWriteError_UnauthenticatedRedirects(t *testing.T) {
	rd := newTestRenderer(t)
	req := httptest.NewRequest(http.MethodPost, "/snippets/new/", nil)
	rec := httptest.NewRecorder()

	rd.writeError(rec, req, apperror.Unauthenticated("login required"))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/accounts/login/?next=%2Fsnippets%2Fnew%2F", rec.Header().Get("Location"))
}

func TestFieldErrors(t *testing.T) {
	err := fmt.Errorf("creating: %w", apperror.Invalid(map[string]string{"title": "required"}))

	errs, ok := fieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, "required", errs.Get("title"))

	_, ok = fieldErrors(apperror.NotFound("snippet", "x"))
	assert.False(t, ok)
}

func TestParseForm_TooLarge(t *testing.T) {
	body := "code=" + strings.Repeat("a", maxFormBytes)
	req := httptest.NewRequest(http.MethodPost, "/snippets/new/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	assert.False(t, parseForm(rec, req))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestParseForm_OK(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("title=hello"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	require.True(t, parseForm(rec, req))
	assert.Equal(t, "hello", req.PostFormValue("title"))
}

func TestCurrentUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, currentUserID(req))

	ctx := auth.WithIdentity(req.Context(), &auth.Identity{UserID: "u1", Username: "alice"})
	assert.Equal(t, "u1", currentUserID(req.WithContext(ctx)))
}
