package routing

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks result cache hits.
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "route_result_cache_hits_total",
		Help: "Total number of result cache hits",
	})

	// cacheMisses tracks result cache misses.
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "route_result_cache_misses_total",
		Help: "Total number of result cache misses",
	})

	// optimizationDuration tracks the time spent computing a route.
	optimizationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "route_optimization_duration_seconds",
		Help:    "Time taken for route optimization by phase",
		Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 2, 5},
	}, []string{"phase"}) // phase: fetch, single_store, multi_store, total

	// optimizationErrors tracks failed optimization runs.
	optimizationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "route_optimization_errors_total",
		Help: "Total number of optimization errors by kind",
	}, []string{"kind"}) // kind: validation, upstream, no_viable_option, internal

	// basketSize tracks the distribution of requested list sizes.
	basketSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "route_basket_items_count",
		Help:    "Number of items in optimization requests",
		Buckets: []float64{1, 5, 10, 20, 50, 100},
	})

	// candidateCount tracks the number of candidate stores considered.
	candidateCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "route_candidate_stores_count",
		Help:    "Number of candidate stores considered per request",
		Buckets: []float64{1, 5, 10, 15, 20, 50},
	})

	// matchLevels tracks how items resolve across match tiers.
	matchLevels = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "route_item_match_level_total",
		Help: "Item resolutions by match level",
	}, []string{"level"}) // level: branch, chain, parent, none

	// multiStoreSavings tracks how much a recommended split saves.
	multiStoreSavings = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "route_multi_store_savings_minor_units",
		Help:    "Savings of multi-store plans over the best single store",
		Buckets: []float64{50, 100, 200, 500, 1000, 2000, 5000},
	})

	// recommendations tracks the engine's verdicts.
	recommendations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "route_recommendations_total",
		Help: "Total recommendations issued by choice",
	}, []string{"choice"}) // choice: single, multi
)

// MetricsRecorder provides methods to record routing metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordCacheHit records a result cache hit.
func (m *MetricsRecorder) RecordCacheHit() {
	cacheHits.Inc()
}

// RecordCacheMiss records a result cache miss.
func (m *MetricsRecorder) RecordCacheMiss() {
	cacheMisses.Inc()
}

// RecordPhaseDuration records the duration of one optimization phase.
func (m *MetricsRecorder) RecordPhaseDuration(phase string, duration time.Duration) {
	optimizationDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordError records a failed optimization run.
func (m *MetricsRecorder) RecordError(kind string) {
	optimizationErrors.WithLabelValues(kind).Inc()
}

// RecordBasketSize records the size of a requested list.
func (m *MetricsRecorder) RecordBasketSize(size int) {
	basketSize.Observe(float64(size))
}

// RecordCandidateCount records the number of candidate stores.
func (m *MetricsRecorder) RecordCandidateCount(count int) {
	candidateCount.Observe(float64(count))
}

// RecordMatchLevel records one item resolution.
func (m *MetricsRecorder) RecordMatchLevel(level MatchLevel) {
	matchLevels.WithLabelValues(level.String()).Inc()
}

// RecordMultiStoreSavings records the savings of a returned split plan.
func (m *MetricsRecorder) RecordMultiStoreSavings(minorUnits int64) {
	multiStoreSavings.Observe(float64(minorUnits))
}

// RecordRecommendation records the engine's verdict.
func (m *MetricsRecorder) RecordRecommendation(choice string) {
	recommendations.WithLabelValues(choice).Inc()
}
