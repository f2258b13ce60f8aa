package auth

import (
	"net/http"
	"time"

	"github.com/rs/xid"
)

const (
	// SessionCookie holds the signed session token.
	SessionCookie = "session"
	// StateCookie holds the OAuth state between the GitHub redirect and callback.
	StateCookie = "oauth_state"

	stateTTL = 10 * time.Minute
)

// Cookies writes and clears the cookies this package owns.
//
// Every cookie is HttpOnly (JavaScript cannot read it, so XSS cannot steal
// the session) and SameSite=Lax (not sent on cross-site POSTs). Secure is
// configurable because local development runs over plain HTTP.
type Cookies struct {
	Secure bool
}

// SetSession stores token in the session cookie for ttl.
func (c Cookies) SetSession(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, c.cookie(SessionCookie, token, int(ttl.Seconds())))
}

// ClearSession deletes the session cookie. The token itself stays valid
// until it expires, but the browser no longer sends it.
func (c Cookies) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(SessionCookie, "", -1))
}

// NewState generates a random OAuth state value, stores it in a short-lived
// cookie and returns it for the authorization URL.
func (c Cookies) NewState(w http.ResponseWriter) string {
	state := xid.New().String()
	http.SetCookie(w, c.cookie(StateCookie, state, int(stateTTL.Seconds())))
	return state
}

// CheckState reports whether got matches the state cookie, and always
// clears the cookie: a state value is single-use.
func (c Cookies) CheckState(w http.ResponseWriter, r *http.Request, got string) bool {
	http.SetCookie(w, c.cookie(StateCookie, "", -1))

	cookie, err := r.Cookie(StateCookie)
	if err != nil || cookie.Value == "" {
		return false
	}
	return cookie.Value == got
}

func (c Cookies) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
