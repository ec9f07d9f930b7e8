// Package metrics exposes Prometheus collectors for the reference harvester.
// The collectors live on a private registry so a run can dump exactly its own
// series to a node-exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registry = prometheus.NewRegistry()

	fetchTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikirefs_fetch_total",
			Help: "Total number of page lookups, labeled by status and error kind.",
		},
		[]string{"status", "kind"},
	)

	fetchDurationSeconds = promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wikirefs_fetch_duration_seconds",
			Help:    "Histogram of page lookup latencies, labeled by status.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"status"},
	)

	runDurationSeconds = promauto.With(registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wikirefs_run_duration_seconds",
			Help: "Wall-clock duration of the last run, labeled by mode.",
		},
		[]string{"mode"},
	)

	runRecordsTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikirefs_run_records_total",
			Help: "Total number of records produced, labeled by mode.",
		},
		[]string{"mode"},
	)

	activeWorkers = promauto.With(registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "wikirefs_active_workers",
			Help: "Number of pool workers currently running a lookup.",
		},
	)

	searchTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikirefs_search_total",
			Help: "Total number of search calls, labeled by outcome.",
		},
		[]string{"outcome"},
	)
)

// Registry returns the gatherer holding every wikirefs collector.
func Registry() *prometheus.Registry {
	return registry
}

// ObserveFetch records one page lookup.
func ObserveFetch(status, kind string, duration time.Duration) {
	if kind == "" {
		kind = "none"
	}
	fetchTotal.WithLabelValues(status, kind).Inc()
	fetchDurationSeconds.WithLabelValues(status).Observe(duration.Seconds())
}

// ObserveRun records the elapsed time and record count of one runner.
func ObserveRun(mode string, records int, elapsed time.Duration) {
	runDurationSeconds.WithLabelValues(mode).Set(elapsed.Seconds())
	runRecordsTotal.WithLabelValues(mode).Add(float64(records))
}

// ObserveSearch records the outcome of the initial search ("ok", "empty", "error").
func ObserveSearch(outcome string) {
	searchTotal.WithLabelValues(outcome).Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	activeWorkers.Dec()
}

// WriteTextfile dumps the registry in the text exposition format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
