package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/auth"
	"github.com/sakif/snippetshare/internal/form"
	"github.com/sakif/snippetshare/internal/service"
)

const invalidLoginMessage = "ユーザー名またはパスワードが正しくありません。"

// AuthHandler manages the login form, logout and the optional GitHub OAuth
// flow.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLoginForm / HandleLogin → password login, session cookie
//   - HandleLogout                  → clear the session cookie
//   - HandleGitHubLogin             → redirect the browser to GitHub
//   - HandleGitHubCallback          → exchange the code, upsert the user, issue a session
//
// github is nil when GitHub login is not configured; the server then does
// not register the /auth/github routes.
type AuthHandler struct {
	accounts *service.AuthService
	github   *auth.GitHubProvider
	cookies  auth.Cookies
	render   *Renderer
	logger   *slog.Logger
}

func NewAuthHandler(
	accounts *service.AuthService,
	github *auth.GitHubProvider,
	cookies auth.Cookies,
	render *Renderer,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		github:   github,
		cookies:  cookies,
		render:   render,
		logger:   logger,
	}
}

type loginPage struct {
	Form          form.LoginForm
	Errors        form.Errors
	Message       string
	Next          string
	GitHubEnabled bool
}

// HandleLoginForm renders the login form. The "next" query parameter set by
// auth.RequireLogin is carried through a hidden field.
//
// HTTP: GET /accounts/login/
func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.render.render(w, r, http.StatusOK, "login.html", loginPage{
		Next:          r.URL.Query().Get("next"),
		GitHubEnabled: h.github != nil,
	})
}

// HandleLogin checks the submitted credentials. On success it sets the
// session cookie and redirects to next (local paths only) or "/".
// Wrong credentials re-render the form with a single non-field message.
//
// HTTP: POST /accounts/login/
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	f := form.BindLogin(r)
	result, err := h.accounts.Authenticate(r.Context(), f)
	if err != nil {
		page := loginPage{
			Form:          form.LoginForm{Username: f.Username},
			Next:          f.Next,
			GitHubEnabled: h.github != nil,
		}
		if errs, ok := fieldErrors(err); ok {
			page.Errors = errs
			h.render.render(w, r, http.StatusOK, "login.html", page)
			return
		}
		if errors.Is(err, apperror.ErrUnauthenticated) {
			page.Message = invalidLoginMessage
			h.render.render(w, r, http.StatusOK, "login.html", page)
			return
		}
		h.render.writeError(w, r, err)
		return
	}

	h.cookies.SetSession(w, result.Token, result.ExpiresIn)
	http.Redirect(w, r, auth.SafeNext(f.Next, "/"), http.StatusSeeOther)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /accounts/logout/
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.cookies.ClearSession(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state value goes into a short-lived cookie and into the
// authorization URL. HandleGitHubCallback only accepts a callback whose
// state matches the cookie.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := h.cookies.NewState(w)
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub user profile
//  3. Upsert the user (a username taken by a password account is a 409)
//  4. Set the session cookie and redirect home
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if !h.cookies.CheckState(w, r, query.Get("state")) {
		h.logger.Warn("auth callback: state mismatch")
		writeText(w, http.StatusBadRequest, "invalid OAuth state")
		return
	}

	// GitHub sends error=access_denied when the user declines.
	if errParam := query.Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	code := query.Get("code")
	if code == "" {
		writeText(w, http.StatusBadRequest, "missing OAuth code")
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		writeText(w, http.StatusBadGateway, "authentication failed")
		return
	}

	result, err := h.accounts.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		h.render.writeError(w, r, err)
		return
	}

	h.cookies.SetSession(w, result.Token, result.ExpiresIn)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
