package entity

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a new opaque record identifier.
func NewID() string {
	return uuid.NewString()
}

// NewKey returns a new 8 hex character prompt capability token.
// The first 32 bits of a v4 UUID are fully random.
func NewKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
