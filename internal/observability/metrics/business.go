package metrics

import (
	"time"
)

// Enrichment outcomes.
const (
	OutcomeEnriched   = "enriched"
	OutcomeIncomplete = "incomplete"
	OutcomeFailed     = "failed"
	OutcomeStoreError = "store_error"
)

// RecordEnrichment records the result of one enrichment item.
func RecordEnrichment(kind, outcome string) {
	EnrichmentItemsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordExtractionFailure records a failed enrichment step.
// Step should be one of "entities", "embedding", "ogp" or "banner".
func RecordExtractionFailure(kind, step string) {
	ExtractionFailuresTotal.WithLabelValues(kind, step).Inc()
}

// SetEnrichmentBacklog records how many items of kind the last pass selected.
func SetEnrichmentBacklog(kind string, n int) {
	EnrichmentBacklog.WithLabelValues(kind).Set(float64(n))
}

// RecordFeedBuilt records one written prompt feed and its length.
func RecordFeedBuilt(size int) {
	FeedsBuiltTotal.Inc()
	FeedSize.Observe(float64(size))
}

func RecordSimilarUpdated() {
	SimilarUpdatedTotal.Inc()
}

// RecordArticlesPruned records a retention pass; total is the count observed
// before deletion.
func RecordArticlesPruned(total, deleted int64) {
	ArticlesTotal.Set(float64(total - deleted))
	if deleted > 0 {
		ArticlesPrunedTotal.Add(float64(deleted))
	}
}

func RecordPromptsPruned(policy string, deleted int64) {
	if deleted > 0 {
		PromptsPrunedTotal.WithLabelValues(policy).Add(float64(deleted))
	}
}

// SetFrontpageRanked records how many articles of source hold a rank.
func SetFrontpageRanked(source string, n int64) {
	FrontpageRanked.WithLabelValues(source).Set(float64(n))
}

// RecordIngestItem records the outcome of one harvested feed item.
func RecordIngestItem(source, outcome string) {
	IngestItemsTotal.WithLabelValues(source, outcome).Inc()
}

// RecordFeedFetch records the duration of a feed fetch.
func RecordFeedFetch(source string, duration time.Duration) {
	FeedFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordFeedFetchError records an error during feed fetching.
func RecordFeedFetchError(source, errorType string) {
	FeedFetchErrors.WithLabelValues(source, errorType).Inc()
}

// RecordContentFetchSuccess records a successful readable-text fetch.
func RecordContentFetchSuccess(duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues("success").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

// RecordContentFetchFailed records a failed readable-text fetch.
func RecordContentFetchFailed(duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues("failure").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

// RecordContentFetchSkipped records a fetch skipped because the feed
// description was already long enough.
func RecordContentFetchSkipped() {
	ContentFetchAttemptsTotal.WithLabelValues("skipped").Inc()
}

// RecordTextAnalysis records one provider call.
//
//	start := time.Now()
//	tags, err := client.ExtractEntities(ctx, text)
//	RecordTextAnalysis("openai", "entities", err == nil, time.Since(start))
func RecordTextAnalysis(provider, operation string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	TextAnalysisRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	TextAnalysisDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordCacheLookup records a text-analysis cache hit or miss.
func RecordCacheLookup(operation string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	TextAnalysisCacheTotal.WithLabelValues(operation, result).Inc()
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "list_enriched", "rank_frontpage").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
