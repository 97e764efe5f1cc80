// Package metrics owns the prometheus registry shared by the pipeline and
// the read API. Each Metrics value has its own registry so tests and
// binaries never collide on the global default.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "schoolter"

// Metrics holds every collector the application reports.
type Metrics struct {
	registry *prometheus.Registry

	records       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	runs          *prometheus.CounterVec
	lastRunSize   prometheus.Gauge
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New creates a registry and registers every collector on it.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "field_groups_total",
			Help:      "Enriched field groups by group and data source.",
		}, []string{"group", "source"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "realdata",
			Name:      "fetch_duration_seconds",
			Help:      "Latency of real-data fetches by kind and outcome.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind", "outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs by mode and result.",
		}, []string{"mode", "result"}),
		lastRunSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "last_run_records",
			Help:      "Number of records written by the last pipeline run.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		m.records,
		m.fetchDuration,
		m.runs,
		m.lastRunSize,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordSource counts one field group filled from source.
func (m *Metrics) RecordSource(group, source string) {
	m.records.WithLabelValues(group, source).Inc()
}

// ObserveFetch records the latency of one real-data fetch.
func (m *Metrics) ObserveFetch(kind string, ok bool, d time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = "fallback"
	}
	m.fetchDuration.WithLabelValues(kind, outcome).Observe(d.Seconds())
}

// RecordRun counts a finished pipeline run.
func (m *Metrics) RecordRun(mode string, err error, records int) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.runs.WithLabelValues(mode, result).Inc()
	if err == nil {
		m.lastRunSize.Set(float64(records))
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// WriteTextfile writes the registry to path for the node exporter's
// textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
