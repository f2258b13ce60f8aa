package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. A plain string key could be
// read or shadowed by any package that knows the string. Only THIS package
// can create a key of type contextKey.
type contextKey string

const identityKey contextKey = "identity"

// Identity is the logged-in user attached to a request.
type Identity struct {
	UserID   string
	Username string
}

// UserLookup is the slice of the user store LoadIdentity needs.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// LoadIdentity is a middleware that resolves the session cookie to an
// Identity but never blocks the request.
//
// A missing, invalid or expired token, or a token for a user that has since
// been deleted, all leave the request anonymous. Routes that need a user
// are wrapped in RequireLogin as well.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware takes an http.Handler and returns a new one that wraps it.
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func LoadIdentity(tokens *TokenService, users UserLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := tokens.Validate(cookie.Value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, apperror.ErrNotFound) {
					logger.Error("loading session user",
						slog.String("userID", userID),
						slog.String("error", err.Error()),
					)
				}
				next.ServeHTTP(w, r)
				return
			}

			id := &Identity{UserID: user.ID, Username: user.Username}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireLogin redirects anonymous requests to loginURL with the original
// request URI in the "next" query parameter, so a successful login returns
// the user to where they were.
func RequireLogin(loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IdentityFromContext(r.Context()); !ok {
				target := loginURL + "?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the request's Identity, or (nil, false) for an
// anonymous request.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil && id.UserID != ""
}

// SafeNext returns next if it is a local path, otherwise fallback.
//
// Browsers read a backslash as a slash and strip TAB, CR and LF, so
// "/\host" and "/\t/host" both become the protocol-relative "//host".
// Control characters and backslashes are rejected anywhere in next.
func SafeNext(next, fallback string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return fallback
	}
	for _, r := range next {
		if r < 0x20 || r == 0x7f || r == '\\' {
			return fallback
		}
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}
