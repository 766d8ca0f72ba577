// Package retention bounds the size of the content store. Articles are
// capped by count, oldest published first; prompts are removed by a
// pluggable staleness policy.
package retention

import "errors"

const (
	// DefaultCeiling is the maximum number of articles kept.
	DefaultCeiling = 1000
	// DefaultChunkSize is the number of ids per delete statement.
	DefaultChunkSize = 100
)

var (
	// ErrCount indicates the article count could not be read.
	ErrCount = errors.New("count articles")
	// ErrDelete indicates a delete statement failed.
	ErrDelete = errors.New("delete records")
)
