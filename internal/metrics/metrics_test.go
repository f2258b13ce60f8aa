package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scrape returns the exposition text the /metrics endpoint would serve.
func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCounters(t *testing.T) {
	m := New()

	m.SnippetCreated()
	m.SnippetCreated()
	m.SnippetUpdated()
	m.CommentCreated()
	m.Login("password", "success")
	m.Login("password", "failure")
	m.Login("password", "failure")

	out := scrape(t, m)
	assert.Contains(t, out, "snippetshare_snippets_created_total 2")
	assert.Contains(t, out, "snippetshare_snippets_updated_total 1")
	assert.Contains(t, out, "snippetshare_comments_created_total 1")
	assert.Contains(t, out, `snippetshare_auth_logins_total{method="password",result="failure"} 2`)
	assert.Contains(t, out, `snippetshare_auth_logins_total{method="password",result="success"} 1`)
}

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest(http.MethodGet, "/snippets/{id}/", http.StatusOK, 3*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/snippets/{id}/", http.StatusNotFound, time.Millisecond)

	out := scrape(t, m)
	assert.Contains(t, out, `snippetshare_http_requests_total{method="GET",route="/snippets/{id}/",status="200"} 1`)
	assert.Contains(t, out, `snippetshare_http_requests_total{method="GET",route="/snippets/{id}/",status="404"} 1`)
	assert.Contains(t, out, `snippetshare_http_request_duration_seconds_count{method="GET",route="/snippets/{id}/"} 2`)
}

func TestHandler_IncludesRuntimeCollectors(t *testing.T) {
	assert.Contains(t, scrape(t, New()), "go_goroutines")
}

func TestNew_IndependentRegistries(t *testing.T) {
	// Two instances must not panic with duplicate registration.
	a, b := New(), New()
	a.SnippetCreated()

	assert.Contains(t, scrape(t, a), "snippetshare_snippets_created_total 1")
	assert.Contains(t, scrape(t, b), "snippetshare_snippets_created_total 0")
}
