package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one server instance. Each
// instance owns its registry so tests can build routers side by side.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// TimelineComputations counts engine runs by source (adhoc, draft,
	// scenario, confirm).
	TimelineComputations *prometheus.CounterVec
	TimelineEvents       prometheus.Histogram

	DraftsSwept prometheus.Counter
}

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
			[]string{"method", "path", "status"},
		),
		TimelineComputations: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "timeline_computations_total", Help: "Contract timelines computed."},
			[]string{"source"},
		),
		TimelineEvents: prometheus.NewHistogram(
			prometheus.HistogramOpts{Name: "timeline_events", Help: "Events per computed timeline.", Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000}},
		),
		DraftsSwept: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "drafts_swept_total", Help: "Stale drafts removed by the sweeper."},
		),
	}

	m.Registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.TimelineComputations,
		m.TimelineEvents,
		m.DraftsSwept,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// observeTimeline records one engine run.
func (m *Metrics) observeTimeline(source string, events int) {
	if m == nil {
		return
	}
	m.TimelineComputations.WithLabelValues(source).Inc()
	m.TimelineEvents.Observe(float64(events))
}

// Middleware records request counts and latencies labelled by route
// pattern, so ids in the path do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := []string{r.Method, path, strconv.Itoa(status)}
		m.HTTPRequests.WithLabelValues(labels...).Inc()
		m.HTTPDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	})
}
