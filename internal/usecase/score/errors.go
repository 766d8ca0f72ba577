// Package score ranks articles against prompts and against each other.
// A relevance score is the sum of the embedding cosine similarity and an
// entity tag overlap ratio, so totals range over [-1, 2].
package score

import (
	"context"
	"errors"
)

// DefaultThreshold is the relevance cutoff for prompt feeds. A candidate is
// kept only when its total score is strictly greater.
const DefaultThreshold = 0.9

// StrictThreshold is the stricter cutoff some deployments use. It is only
// a reference value for SCORE_THRESHOLD.
const StrictThreshold = 1.5

// ErrListCandidates indicates the candidate articles could not be loaded.
var ErrListCandidates = errors.New("list scoring candidates")

// Pacer spaces out the items of a pass. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

func pace(ctx context.Context, p Pacer) error {
	if p == nil {
		return ctx.Err()
	}
	return p.Wait(ctx)
}
