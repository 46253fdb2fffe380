// Package metrics exposes the Prometheus instrumentation for the decision
// engine, the market feed and the HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Engine
	SuggestionsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfer_suggestions_generated_total",
			Help: "Suggestions produced by the rule table, by suggestion type",
		},
		[]string{"type"},
	)

	SuggestionsDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transfer_suggestions_discarded_total",
			Help: "Suggestions dropped by the ranker for low confidence",
		},
	)

	DevicesWithoutSuggestion = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transfer_devices_without_suggestion_total",
			Help: "Devices for which no rule matched",
		},
	)

	EvaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transfer_evaluation_duration_seconds",
			Help:    "Duration of engine operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	TimingRecommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfer_timing_recommendations_total",
			Help: "Timing recommendations issued, by recommendation",
		},
		[]string{"recommendation"},
	)

	// Market feed
	MarketFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_fetches_total",
			Help: "Market snapshot fetches by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	MarketCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "market_cache_hits_total",
			Help: "Market snapshots served from cache",
		},
	)

	MarketCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "market_cache_misses_total",
			Help: "Market snapshots that required an upstream fetch",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "market_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Ingestion
	IngestedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_ingested_records_total",
			Help: "User records written to the registry, by outcome",
		},
		[]string{"outcome"},
	)

	// Registry
	RegistryQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "registry_query_duration_seconds",
			Help:    "Duration of device registry queries in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"mode", "outcome"},
	)

	// API
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordSuggestion counts one generated suggestion.
func RecordSuggestion(suggestionType string) {
	SuggestionsGenerated.WithLabelValues(suggestionType).Inc()
}

// RecordEvaluation observes how long an engine operation took.
func RecordEvaluation(operation string, duration time.Duration) {
	EvaluationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordMarketFetch counts a fetch against source, labelled by whether it failed.
func RecordMarketFetch(source string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	MarketFetches.WithLabelValues(source, outcome).Inc()
}

// RecordRegistryQuery observes a read or write against the device registry.
func RecordRegistryQuery(mode string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	RegistryQueryDuration.WithLabelValues(mode, outcome).Observe(duration.Seconds())
}

// RecordAPIRequest observes an HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}
