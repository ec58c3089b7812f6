// Package metrics exposes Prometheus collectors for the planning service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "planning"

var (
	absenceWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "absence",
		Name:      "writes_total",
		Help:      "Total number of absence creations broken down by outcome (inserted, merged, rejected).",
	}, []string{"outcome"})

	absenceMergedIntervals = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "absence",
		Name:      "merged_intervals_total",
		Help:      "Total number of stored intervals absorbed by a merge.",
	})

	consolidationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "consolidation",
		Name:      "runs_total",
		Help:      "Total number of per-member consolidation passes broken down by result.",
	}, []string{"result"})

	consolidationRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "consolidation",
		Name:      "removed_intervals_total",
		Help:      "Total number of intervals removed by consolidation.",
	})

	scheduleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "schedule",
		Name:      "compute_seconds",
		Help:      "Time spent loading and computing a schedule view.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	scheduleDays = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "schedule",
		Name:      "range_days",
		Help:      "Number of days covered by computed schedule views.",
		Buckets:   []float64{1, 7, 14, 21, 31, 62},
	})

	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "requests_total",
		Help:      "Total number of schedule cache lookups broken down by hit/miss.",
	}, []string{"result"})

	cacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "invalidate_total",
		Help:      "Total number of schedule cache invalidations broken down by reason.",
	}, []string{"reason"})

	generatedAssignments = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "assignments",
		Name:      "generated_total",
		Help:      "Total number of specific assignments produced from the weekly roster.",
	})
)

// RecordAbsenceWrite counts an absence creation. merged is the number of
// stored intervals the new one absorbed.
func RecordAbsenceWrite(outcome string, merged int) {
	if outcome == "" {
		outcome = "inserted"
	}
	absenceWrites.WithLabelValues(outcome).Inc()
	if merged > 0 {
		absenceMergedIntervals.Add(float64(merged))
	}
}

// RecordConsolidation counts one member consolidation pass.
func RecordConsolidation(before, after int, err error) {
	switch {
	case err != nil:
		consolidationRuns.WithLabelValues("error").Inc()
	case after < before:
		consolidationRuns.WithLabelValues("merged").Inc()
		consolidationRemoved.Add(float64(before - after))
	default:
		consolidationRuns.WithLabelValues("clean").Inc()
	}
}

// ObserveSchedule records a schedule computation.
func ObserveSchedule(seconds float64, days int) {
	scheduleDuration.Observe(seconds)
	scheduleDays.Observe(float64(days))
}

// RecordCacheRequest counts a schedule cache lookup.
func RecordCacheRequest(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheRequests.WithLabelValues(result).Inc()
}

// RecordCacheInvalidate counts a schedule cache purge.
func RecordCacheInvalidate(reason string) {
	if reason == "" {
		reason = "manual"
	}
	cacheInvalidations.WithLabelValues(reason).Inc()
}

// RecordGenerated counts generated specific assignments.
func RecordGenerated(n int) {
	if n > 0 {
		generatedAssignments.Add(float64(n))
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
