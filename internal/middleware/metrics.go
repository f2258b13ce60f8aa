package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// RequestObserver records finished requests. *metrics.Metrics implements it.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// unmatchedRoute labels requests no route matched (404s for random paths),
// so scanners cannot blow up label cardinality.
const unmatchedRoute = "unmatched"

// Metrics returns a middleware that reports every request to obs, labelled
// with the chi route pattern. The pattern is only complete after routing,
// so it is read once the handler has returned.
func Metrics(obs RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrap(w)

			next.ServeHTTP(wrapped, r)

			route := unmatchedRoute
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			obs.ObserveRequest(r.Method, route, wrapped.statusCode, time.Since(start))
		})
	}
}
