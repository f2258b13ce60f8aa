package middleware

import (
	"net/http"

	"github.com/sakif/snippetshare/internal/form"
)

// Locale stores the request's Accept-Language preferences on the context so
// services translate validation messages for this caller.
func Locale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		langs := form.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
		if len(langs) > 0 {
			r = r.WithContext(form.WithLanguages(r.Context(), langs))
		}
		next.ServeHTTP(w, r)
	})
}
