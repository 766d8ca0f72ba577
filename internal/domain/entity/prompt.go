package entity

import "time"

// Prompt represents a user-defined standing query.
// Key is the capability token required to mutate it.
type Prompt struct {
	ID           string
	Key          string
	Text         string
	TextImproved string
	Settings     PromptSettings
	Enabled      bool

	Tags       []Tag
	Embedding  []float32
	RetryCount int

	Feed       []FeedEntry
	LastUsedAt time.Time
	CreatedAt  time.Time
}

// PromptSettings are filters applied at scoring time.
type PromptSettings struct {
	Categories []string `json:"categories,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	// Threshold overrides the default relevance threshold when set.
	Threshold *float64 `json:"threshold,omitempty"`
	// Limit caps the feed length; 0 means unlimited.
	Limit int `json:"limit,omitempty"`
}

// FeedEntry is one ranked article reference in a prompt feed.
type FeedEntry struct {
	ArticleID string  `json:"article_id"`
	Score     float64 `json:"score"`
}

// ResetDerived clears every field derived from the prompt text so the
// enrichment pipeline reprocesses it.
func (p *Prompt) ResetDerived() {
	p.TextImproved = ""
	p.Tags = nil
	p.Embedding = nil
	p.Feed = nil
	p.RetryCount = 0
}

// IsEnriched reports whether both tags and embedding are present.
func (p *Prompt) IsEnriched() bool {
	return len(p.Tags) > 0 && len(p.Embedding) > 0
}

// Kind implements Enrichable.
func (p *Prompt) Kind() Kind { return KindPrompt }

// EntityID implements Enrichable.
func (p *Prompt) EntityID() string { return p.ID }

// EnrichmentTags implements Enrichable.
func (p *Prompt) EnrichmentTags() []Tag { return p.Tags }

// EnrichmentEmbedding implements Enrichable.
func (p *Prompt) EnrichmentEmbedding() []float32 { return p.Embedding }

// Attempts implements Enrichable.
func (p *Prompt) Attempts() int { return p.RetryCount }

// NeedsEnrichment implements Enrichable.
func (p *Prompt) NeedsEnrichment() bool {
	return len(p.Tags) == 0 || len(p.Embedding) == 0
}
