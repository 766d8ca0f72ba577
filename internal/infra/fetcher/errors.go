// Package fetcher extracts the readable text of article pages. Ingestion
// uses it to backfill descriptions that the feed left short.
package fetcher

import "errors"

var (
	// ErrInvalidURL indicates a malformed URL or an unsupported scheme.
	ErrInvalidURL = errors.New("invalid URL or unsupported scheme")

	// ErrPrivateIP indicates the host resolves to a private, loopback or
	// link-local address.
	ErrPrivateIP = errors.New("private IP access denied")

	ErrTooManyRedirects = errors.New("too many redirects")
	ErrBodyTooLarge     = errors.New("response body too large")
	ErrTimeout          = errors.New("request timeout")

	// ErrReadabilityFailed indicates the page held no extractable text.
	ErrReadabilityFailed = errors.New("content extraction failed")
)
