// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes the pipeline metrics:
//   - Enrichment outcomes and failed steps per record kind
//   - Feed sizes, similar-article rewrites and frontpage ranks
//   - Retention deletions and corpus size
//   - Ingestion outcomes and text-analysis provider latency
//   - Database query metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the worker /metrics endpoint.
//
// Example usage:
//
//	import "lesnouvelles-feed/internal/observability/metrics"
//
//	func enrichOne(kind string) {
//	    // ... extract entities and embed ...
//	    metrics.RecordEnrichment(kind, metrics.OutcomeEnriched)
//	}
package metrics
