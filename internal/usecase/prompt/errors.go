// Package prompt provides the use cases behind the prompt surface:
// creation, keyed edits, and reading a prompt's feed.
package prompt

import "errors"

// ErrNotScorable indicates a prompt has not been enriched yet, so it
// cannot be matched against articles.
var ErrNotScorable = errors.New("prompt is not enriched yet")
