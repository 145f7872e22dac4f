package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================================
// METRICS — Prometheus instrumentation for the query API
// ============================================================================

var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduscope",
		Name:      "queries_total",
		Help:      "Queries served, by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "eduscope",
		Name:      "query_duration_seconds",
		Help:      "Query handling latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	filterFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eduscope",
		Name:      "filter_fallbacks_total",
		Help:      "Filter specs dropped for referencing an unknown attribute.",
	})
)
