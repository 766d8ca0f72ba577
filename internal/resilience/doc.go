// Package resilience groups the failure-handling helpers wrapped around every
// network call of the pipeline.
//
//   - circuitbreaker: gobreaker wrappers for text-analysis providers, feeds and pages
//   - retry: exponential backoff with jitter for transient failures
//
// Example:
//
//	cb := circuitbreaker.New(circuitbreaker.FeedFetchConfig())
//	items, err := circuitbreaker.Run(cb, func() ([]FeedItem, error) {
//		return retry.Do(ctx, retry.FeedFetchConfig(), fetch)
//	})
package resilience
