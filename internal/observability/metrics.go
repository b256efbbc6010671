package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry          *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	refreshTotal      *prometheus.CounterVec
	refreshDuration   prometheus.Histogram
	telemetryTotal    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riego_dashboard_refresh_total",
			Help: "Dashboard refreshes by outcome and failure cause.",
		}, []string{"outcome", "cause"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "riego_dashboard_refresh_duration_seconds",
			Help:    "Time spent loading readings and building charts.",
			Buckets: prometheus.DefBuckets,
		}),
		telemetryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riego_telemetry_ingested_total",
			Help: "MQTT telemetry messages by ingest result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.refreshTotal,
		m.refreshDuration,
		m.telemetryTotal,
	)

	return m
}

// StatusRecorder remembers the status code written through it. Handlers that
// never call WriteHeader report 200.
type StatusRecorder struct {
	http.ResponseWriter
	status int
}

func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (s *StatusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *StatusRecorder) Status() int {
	return s.status
}

// WrapHandler records request counts and latency labelled by the matched mux pattern.
func (m *Metrics) WrapHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := NewStatusRecorder(w)
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m == nil {
			return
		}
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RefreshObserved records one dashboard refresh. cause is empty on success.
func (m *Metrics) RefreshObserved(outcome, cause string, duration time.Duration) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(outcome, cause).Inc()
	m.refreshDuration.Observe(duration.Seconds())
}

func (m *Metrics) TelemetryIngested(result string) {
	if m == nil {
		return
	}
	m.telemetryTotal.WithLabelValues(result).Inc()
}
