// Package metrics exposes Prometheus metrics for searches and HTTP traffic.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pieza-web/internal/model"
)

// Metrics holds the collectors, registered on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	SearchesTotal       *prometheus.CounterVec
	SearchDuration      *prometheus.HistogramVec
	SearchesInFlight    prometheus.Gauge
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all metrics, plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pieza_searches_total",
			Help: "Finished search API calls by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)
	m.SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pieza_search_duration_seconds",
			Help:    "Duration of search API calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"mode"},
	)
	m.SearchesInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pieza_searches_in_flight",
			Help: "Search API calls currently running",
		},
	)
	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pieza_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pieza_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.registry.MustRegister(
		m.SearchesTotal,
		m.SearchDuration,
		m.SearchesInFlight,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the metrics live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SearchStarted bumps the in-flight gauge.
func (m *Metrics) SearchStarted(_ context.Context, _, _ string) {
	m.SearchesInFlight.Inc()
}

// Observe records a finished search call.
func (m *Metrics) Observe(_ context.Context, evt model.SearchCompleted) {
	m.SearchesInFlight.Dec()
	m.SearchesTotal.WithLabelValues(evt.Mode, string(evt.Outcome)).Inc()
	m.SearchDuration.WithLabelValues(evt.Mode).Observe(float64(evt.DurationMillis) / 1000)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware counts requests by route template so ids do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
