// Package metrics registers the Prometheus collectors for the agent.
//
// Collectors are package-level and registered on the default registry through
// promauto; serve mounts promhttp.Handler() on /metrics to expose them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Conversation metrics
var (
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicagent_turns_total",
			Help: "Total number of conversation turns by route and outcome",
		},
		[]string{"route", "outcome"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "musicagent_turn_duration_seconds",
			Help:    "Time to handle one utterance, including language model calls",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"route"},
	)

	IntentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicagent_intents_total",
			Help: "Resolved intents from natural language input",
		},
		[]string{"intent"},
	)

	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicagent_recommendations_total",
			Help: "Recommendation batches by phase and result",
		},
		[]string{"phase", "result"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "musicagent_active_sessions",
			Help: "Number of open conversation sessions in the HTTP transport",
		},
	)
)

// Language model metrics
var (
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicagent_llm_requests_total",
			Help: "Total number of language model generate calls",
		},
		[]string{"provider", "status"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "musicagent_llm_request_duration_seconds",
			Help:    "Language model generate latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)
)

// External provider metrics
var (
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicagent_provider_requests_total",
			Help: "Total number of requests to external music providers",
		},
		[]string{"provider", "status"},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "musicagent_provider_request_duration_seconds",
			Help:    "External music provider request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)

// Store metrics
var (
	StoreQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicagent_store_queries_total",
			Help: "Total number of backing store operations",
		},
		[]string{"operation", "status"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "musicagent_store_query_duration_seconds",
			Help:    "Backing store operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicagent_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "musicagent_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Status maps an error to the "ok"/"error" label used by the counters.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveStore records one store operation that began at start.
func ObserveStore(operation string, start time.Time, err error) {
	StoreQueriesTotal.WithLabelValues(operation, Status(err)).Inc()
	StoreQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveLLM records one generate call that began at start.
func ObserveLLM(provider string, start time.Time, err error) {
	LLMRequestsTotal.WithLabelValues(provider, Status(err)).Inc()
	LLMRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

// ObserveProvider records one external provider request that began at start.
func ObserveProvider(provider string, start time.Time, err error) {
	ProviderRequestsTotal.WithLabelValues(provider, Status(err)).Inc()
	ProviderRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}
