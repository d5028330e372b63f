// Package metrics instruments search backends and transformers with
// Prometheus metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "hitpager"

// Backend operations, derived from the shape of the query.
const (
	OperationSearch = "search"
	OperationCount  = "count"
	OperationSlice  = "slice"
)

// Transform modes and outcomes.
const (
	ModeStrict = "strict"
	ModeHybrid = "hybrid"

	OutcomeObject  = "object"
	OutcomeRaw     = "raw"
	OutcomeDropped = "dropped"
	OutcomeError   = "error"
)

var (
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "backend_requests_total",
			Help:      "Total number of search backend round trips",
		},
		[]string{"operation", "status"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Search backend round trip duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	BackendHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "backend_hits_total",
			Help:      "Total number of hits loaded from the search backend",
		},
		[]string{"operation"},
	)

	TransformEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "transform_entries_total",
			Help:      "Hits processed by transformers, by outcome",
		},
		[]string{"mode", "outcome"},
	)
)

var registerOnce sync.Once

// Register registers the metrics with reg. Only the first call has any
// effect. A nil reg means prometheus.DefaultRegisterer.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(
			BackendRequestsTotal,
			BackendRequestDuration,
			BackendHitsTotal,
			TransformEntriesTotal,
		)
	})
}
