// Package metrics defines the Prometheus metrics of the console.
//
// Metric naming follows Prometheus conventions:
//   - tally_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeStale = "stale"
)

var (
	// Registry holds every tally metric plus the Go runtime collectors.
	Registry = prometheus.NewRegistry()

	// PollsTotal counts fetches by snapshot slice and outcome.
	PollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_polls_total",
			Help: "Total monitoring API fetches by slice and outcome.",
		},
		[]string{"slice", "outcome"},
	)

	// PollDurationSeconds is a histogram of fetch latency by slice.
	PollDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tally_poll_duration_seconds",
			Help:    "Duration of monitoring API fetches in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"slice"},
	)

	// SnapshotItems is the number of records currently held per slice.
	SnapshotItems = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tally_snapshot_items",
			Help: "Records held in the in-memory snapshot by slice.",
		},
		[]string{"slice"},
	)

	// ActionsTotal counts operator actions by action and result.
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_actions_total",
			Help: "Total operator actions dispatched to the monitoring API.",
		},
		[]string{"action", "result"},
	)

	// BackendHealthy is 1 when the last health check reported healthy.
	BackendHealthy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tally_backend_healthy",
			Help: "Whether the monitoring API reported itself healthy (1) or not (0).",
		},
	)

	// MetricsWatchActive is 1 while an input's metrics panel is being polled.
	MetricsWatchActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tally_metrics_watch_active",
			Help: "Whether the metrics panel refresh loop is running.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		PollsTotal,
		PollDurationSeconds,
		SnapshotItems,
		ActionsTotal,
		BackendHealthy,
		MetricsWatchActive,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordPoll records one fetch of slice.
func RecordPoll(slice, outcome string, d time.Duration) {
	PollsTotal.WithLabelValues(slice, outcome).Inc()
	PollDurationSeconds.WithLabelValues(slice).Observe(d.Seconds())
}

func RecordSnapshotItems(slice string, n int) {
	SnapshotItems.WithLabelValues(slice).Set(float64(n))
}

// RecordAction records one operator action; err decides the result label.
func RecordAction(action string, err error) {
	result := OutcomeOK
	if err != nil {
		result = OutcomeError
	}
	ActionsTotal.WithLabelValues(action, result).Inc()
}

func RecordBackendHealth(healthy bool) {
	if healthy {
		BackendHealthy.Set(1)
		return
	}
	BackendHealthy.Set(0)
}

func RecordMetricsWatch(active bool) {
	if active {
		MetricsWatchActive.Set(1)
		return
	}
	MetricsWatchActive.Set(0)
}
