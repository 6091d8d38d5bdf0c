package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Query bus metrics
	Queries       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec

	// Import metrics
	ImportRuns    prometheus.Counter
	ImportRecords *prometheus.CounterVec
}

// NewCollector creates a new metrics collector with the given namespace.
// Every collector owns its registry so tests can build as many as they need.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total number of query bus events by outcome",
			},
			[]string{"metric", "query"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Query handler duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"query"},
		),
		ImportRuns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "import_runs_total",
				Help:      "Total number of successful imports",
			},
		),
		ImportRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "import_records_total",
				Help:      "Total number of imported records by outcome",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Queries,
		c.QueryDuration,
		c.ImportRuns,
		c.ImportRecords,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request
func (c *Collector) ObserveHTTP(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncrementQuery counts a query bus event such as query_count or query_errors
func (c *Collector) IncrementQuery(metric, query string) {
	c.Queries.WithLabelValues(metric, query).Inc()
}

// StartQueryTimer starts timing a query; call the returned func to observe
func (c *Collector) StartQueryTimer(query string) func() {
	timer := prometheus.NewTimer(c.QueryDuration.WithLabelValues(query))
	return func() { timer.ObserveDuration() }
}

// RecordImport counts the outcome of an import run
func (c *Collector) RecordImport(ctx context.Context, created, updated int) {
	c.ImportRuns.Inc()
	c.ImportRecords.WithLabelValues("created").Add(float64(created))
	c.ImportRecords.WithLabelValues("updated").Add(float64(updated))
}
