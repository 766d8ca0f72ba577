// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Content store metrics track the size of the corpus
var (
	// ArticlesTotal tracks the article count observed by the last retention pass
	ArticlesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "articles_total",
			Help: "Total number of articles in the database",
		},
	)

	// ArticlesPrunedTotal counts articles deleted by the retention ceiling
	ArticlesPrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "articles_pruned_total",
			Help: "Total number of articles deleted by retention",
		},
	)

	// PromptsPrunedTotal counts prompts deleted by the staleness policy
	PromptsPrunedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompts_pruned_total",
			Help: "Total number of prompts deleted by the staleness policy",
		},
		[]string{"policy"},
	)
)

// Enrichment metrics track the tag/embedding pipeline
var (
	// EnrichmentItemsTotal counts processed items by kind and outcome
	EnrichmentItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_items_total",
			Help: "Total number of items processed by the enrichment pipeline",
		},
		[]string{"kind", "outcome"}, // outcome: enriched, incomplete, failed, store_error
	)

	// ExtractionFailuresTotal counts failed enrichment steps
	ExtractionFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_step_failures_total",
			Help: "Total number of failed enrichment steps",
		},
		[]string{"kind", "step"}, // step: entities, embedding, ogp, banner
	)

	// EnrichmentBacklog is the number of items selected by the last pass
	EnrichmentBacklog = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "enrichment_backlog_items",
			Help: "Number of items selected for enrichment in the last pass",
		},
		[]string{"kind"},
	)
)

// Scoring metrics track feed and similar-article computation
var (
	// FeedsBuiltTotal counts prompt feeds written
	FeedsBuiltTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prompt_feeds_built_total",
			Help: "Total number of prompt feeds written",
		},
	)

	// FeedSize measures the number of entries of each written feed
	FeedSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prompt_feed_size",
			Help:    "Number of articles in a written prompt feed",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	// SimilarUpdatedTotal counts articles whose similar list was rewritten
	SimilarUpdatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "similar_articles_updated_total",
			Help: "Total number of articles whose similar list was rewritten",
		},
	)

	// FrontpageRanked is the number of ranked articles per source after the last pass
	FrontpageRanked = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "frontpage_ranked_articles",
			Help: "Number of articles holding a frontpage rank per source",
		},
		[]string{"source"},
	)
)

// Ingestion metrics track RSS harvesting
var (
	// IngestItemsTotal counts feed items by outcome
	IngestItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_items_total",
			Help: "Total number of feed items processed by ingestion",
		},
		[]string{"source", "outcome"}, // outcome: inserted, duplicate, too_old, invalid, error
	)

	// FeedFetchDuration measures time to fetch and parse a feed
	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_fetch_duration_seconds",
			Help:    "Time taken to fetch and parse a feed",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"source"},
	)

	// FeedFetchErrors counts errors during feed fetching
	FeedFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetch_errors_total",
			Help: "Total number of feed fetch errors",
		},
		[]string{"source", "error_type"},
	)

	// ContentFetchAttemptsTotal counts readable-text fetch attempts by result
	ContentFetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_fetch_attempts_total",
			Help: "Total number of content fetch attempts",
		},
		[]string{"result"}, // result: success, failure, skipped
	)

	// ContentFetchDuration measures time to fetch article content
	ContentFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "content_fetch_duration_seconds",
			Help:    "Time taken to fetch article content",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
		},
	)
)

// Text-analysis metrics track calls to the NER and embedding providers
var (
	// TextAnalysisRequestsTotal counts provider calls
	TextAnalysisRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "text_analysis_requests_total",
			Help: "Total number of text-analysis provider requests",
		},
		[]string{"provider", "operation", "status"},
	)

	// TextAnalysisDuration measures provider latency
	TextAnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "text_analysis_duration_seconds",
			Help:    "Text-analysis provider request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"provider", "operation"},
	)

	// TextAnalysisCacheTotal counts response cache lookups
	TextAnalysisCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "text_analysis_cache_total",
			Help: "Text-analysis response cache lookups by result",
		},
		[]string{"operation", "result"}, // result: hit, miss
	)
)

// Database metrics track database performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)
