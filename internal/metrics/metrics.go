// Package metrics defines the Prometheus collectors exported at /metrics.
//
// Plex client:
//   - plexlocalize_plex_requests_total{server,method,outcome}
//   - plexlocalize_plex_request_duration_seconds{server,method}
//   - plexlocalize_circuit_breaker_state{server} (0=closed, 1=half-open, 2=open)
//
// Engine:
//   - plexlocalize_batches_total{server,result}
//   - plexlocalize_items_processed_total{server}
//   - plexlocalize_writes_total{field}
//   - plexlocalize_run_duration_seconds{trigger}
//   - plexlocalize_runs_total{trigger,result}
//   - plexlocalize_last_run_timestamp_seconds
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PlexRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plexlocalize_plex_requests_total",
			Help: "Total number of Plex API requests",
		},
		[]string{"server", "method", "outcome"},
	)

	PlexRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plexlocalize_plex_request_duration_seconds",
			Help:    "Duration of Plex API requests in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"server", "method"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "plexlocalize_circuit_breaker_state",
			Help: "Circuit breaker state per Plex server (0=closed, 1=half-open, 2=open)",
		},
		[]string{"server"},
	)

	Batches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plexlocalize_batches_total",
			Help: "Total number of processed batches by result",
		},
		[]string{"server", "result"},
	)

	ItemsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plexlocalize_items_processed_total",
			Help: "Total number of items fetched and transformed",
		},
		[]string{"server"},
	)

	Writes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plexlocalize_writes_total",
			Help: "Total number of metadata writes issued, by field",
		},
		[]string{"field"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plexlocalize_run_duration_seconds",
			Help:    "Duration of localization runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"trigger"},
	)

	Runs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plexlocalize_runs_total",
			Help: "Total number of localization runs by trigger and result",
		},
		[]string{"trigger", "result"},
	)

	LastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "plexlocalize_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last finished localization run",
		},
	)
)
