// Package metrics holds the Prometheus instruments for MediaSense.
//
// All collectors are registered on the default registry at init and served
// by the HTTP API on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search modes and fallback reasons used as label values
const (
	ModeSemantic = "semantic"
	ModeKeyword  = "keyword"

	ReasonShortQuery           = "short_query"
	ReasonEmbeddingUnavailable = "embedding_unavailable"

	GateEmptyQuery        = "empty_query_vector"
	GateEmptyCandidate    = "empty_candidate_vector"
	GateDimensionMismatch = "dimension_mismatch"
)

var (
	// Search metrics
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasense_search_requests_total",
			Help: "Total number of search requests by execution mode",
		},
		[]string{"mode"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediasense_search_duration_seconds",
			Help:    "Duration of search requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	SearchFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasense_search_fallbacks_total",
			Help: "Searches that skipped semantic ranking, by reason",
		},
		[]string{"reason"},
	)

	SearchCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediasense_search_cache_hits_total",
			Help: "Total number of search response cache hits",
		},
	)

	SearchCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediasense_search_cache_misses_total",
			Help: "Total number of search response cache misses",
		},
	)

	// Ranking metrics
	RankedCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mediasense_ranker_candidates",
			Help:    "Number of candidates scored per ranking pass",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	SemanticGate = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasense_ranker_semantic_gate_total",
			Help: "Candidates whose semantic score was zeroed by the vector shape gate",
		},
		[]string{"reason"},
	)

	// Embedding metrics
	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasense_embedding_requests_total",
			Help: "Embedding provider calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	EmbeddingBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediasense_embedding_breaker_open",
			Help: "1 when the embedding circuit breaker is open",
		},
		[]string{"provider"},
	)

	// Analyzer metrics
	AnalyzerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasense_analyzer_requests_total",
			Help: "Analyzer calls by provider, call kind and outcome",
		},
		[]string{"provider", "call", "outcome"},
	)

	// Ingestion metrics
	IngestProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasense_ingest_processed_total",
			Help: "Media items processed by the ingestion pipeline by outcome",
		},
		[]string{"outcome"},
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mediasense_ingest_duration_seconds",
			Help:    "Duration of media analysis in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasense_http_requests_total",
			Help: "HTTP requests by route pattern, method and status",
		},
		[]string{"route", "method", "status"},
	)
)

// RecordSearch records one completed search
func RecordSearch(mode string, d time.Duration) {
	SearchRequests.WithLabelValues(mode).Inc()
	SearchDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// RecordEmbedding records one embedding call
func RecordEmbedding(provider string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	EmbeddingRequests.WithLabelValues(provider, outcome).Inc()
}

// RecordAnalyzer records one analyzer call of the given kind
// (describe, tags or topics)
func RecordAnalyzer(provider, call string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	AnalyzerRequests.WithLabelValues(provider, call, outcome).Inc()
}
