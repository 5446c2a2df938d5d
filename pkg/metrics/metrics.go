// Package metrics exposes the Prometheus instruments collabkit's domains
// report to: row-cache occupancy and hit/miss rate, fetch-queue depth and
// retries, and repair-cycle outcomes. Packages import the package-level
// vars directly and call Inc/Observe/Set inline, the same pattern the
// teacher codebase uses for its cluster metrics. In this module only
// pkg/repair updates its instruments (RepairCyclesTotal,
// RepairsAppliedTotal, RepairCycleDuration); the row-cache, fetch and
// observer-event instruments are registered but nothing updates them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RowCacheSize is the current number of rows held in a RowBlock's LRU cache.
	RowCacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "collabkit_row_cache_size",
			Help: "Current number of rows held in the RowBlock LRU cache",
		},
	)

	RowCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collabkit_row_cache_hits_total",
			Help: "Total number of RowBlock.GetRow calls served from cache",
		},
	)

	RowCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collabkit_row_cache_misses_total",
			Help: "Total number of RowBlock.GetRow calls that missed the cache",
		},
	)

	RowCacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collabkit_row_cache_evictions_total",
			Help: "Total number of rows evicted from the RowBlock LRU cache",
		},
	)

	// FetchQueueDepth is the current number of outstanding row-fetch requests.
	FetchQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "collabkit_fetch_queue_depth",
			Help: "Current number of outstanding row fetch requests by kind",
		},
		[]string{"kind"}, // "single" or "batch"
	)

	FetchRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collabkit_fetch_retries_total",
			Help: "Total number of row fetch retries due to persistence failures",
		},
	)

	FetchFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collabkit_fetch_failures_total",
			Help: "Total number of row fetch requests that exhausted their retries",
		},
	)

	FetchDedupedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collabkit_fetch_deduped_total",
			Help: "Total number of fetch requests dropped because a newer request for the same row superseded them",
		},
	)

	// RepairCyclesTotal counts repair.Reconciler sweeps.
	RepairCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collabkit_repair_cycles_total",
			Help: "Total number of consistency-repair cycles completed",
		},
	)

	RepairsAppliedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collabkit_repairs_applied_total",
			Help: "Total number of individual repairs applied, by kind",
		},
		[]string{"kind"},
	)

	RepairCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "collabkit_repair_cycle_duration_seconds",
			Help:    "Time taken for one repair cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Observer event counters, split by domain and change kind.
	ObserverEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collabkit_observer_events_total",
			Help: "Total number of domain events published from substrate observers",
		},
		[]string{"domain", "kind"},
	)
)

func init() {
	prometheus.MustRegister(
		RowCacheSize,
		RowCacheHitsTotal,
		RowCacheMissesTotal,
		RowCacheEvictionsTotal,
		FetchQueueDepth,
		FetchRetriesTotal,
		FetchFailuresTotal,
		FetchDedupedTotal,
		RepairCyclesTotal,
		RepairsAppliedTotal,
		RepairCycleDuration,
		ObserverEventsTotal,
	)
}

// Handler returns the Prometheus HTTP handler for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a small helper for timing operations into a histogram.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
