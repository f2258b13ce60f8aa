// Package metrics defines the Prometheus collectors the server exposes on
// /metrics. Collectors live on a private registry rather than the global
// default one, so tests can build as many Metrics values as they like.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "snippetshare"

// Metrics holds every collector. It implements service.Recorder and
// middleware.RequestObserver.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	snippetsCreated prometheus.Counter
	snippetsUpdated prometheus.Counter
	commentsCreated prometheus.Counter
	logins          *prometheus.CounterVec
}

// New registers the collectors, plus the standard Go runtime and process
// collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(Namespace, "http", "requests_total"),
			Help: "HTTP requests by method, route pattern and status code",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prometheus.BuildFQName(Namespace, "http", "request_duration_seconds"),
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"method", "route"}),
		snippetsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(Namespace, "snippets", "created_total"),
			Help: "Snippets created",
		}),
		snippetsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(Namespace, "snippets", "updated_total"),
			Help: "Snippet edits saved",
		}),
		commentsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(Namespace, "comments", "created_total"),
			Help: "Comments created",
		}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(Namespace, "auth", "logins_total"),
			Help: "Login attempts by method and result",
		}, []string{"method", "result"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one finished HTTP request. route is the chi route
// pattern as chi reports it ("/snippets/{id}"), never the raw path, to bound
// cardinality.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) SnippetCreated() { m.snippetsCreated.Inc() }
func (m *Metrics) SnippetUpdated() { m.snippetsUpdated.Inc() }
func (m *Metrics) CommentCreated() { m.commentsCreated.Inc() }

func (m *Metrics) Login(method, result string) {
	m.logins.WithLabelValues(method, result).Inc()
}
