// Package entity defines the core domain entities and validation logic for the application.
// It contains the records shared by every pass of the pipeline: harvested Articles,
// user-authored Prompts, the source catalog, and the domain-specific errors.
package entity

import "time"

// Article represents a harvested news item.
// Link is the natural unique key; ID is an opaque identifier assigned on creation.
type Article struct {
	ID          string
	Link        string
	Title       string
	Description string
	Source      string
	Category    string
	PublishedAt time.Time

	// Enrichment state, written only by the enrichment pipeline.
	Tags       []Tag
	Embedding  []float32
	RetryCount int
	OGP        *OGP
	Image      string

	// Presentation state.
	FrontpageRank int
	Similar       []SimilarRef

	CreatedAt time.Time
}

// OGP holds the open-graph metadata collected from an article page.
type OGP struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
	Type        string `json:"type,omitempty"`
	URL         string `json:"url,omitempty"`
}

// IsEmpty reports whether no open-graph field was found.
func (o *OGP) IsEmpty() bool {
	return o == nil || *o == OGP{}
}

// SimilarRef is a cached reference to a related article.
type SimilarRef struct {
	ArticleID string  `json:"article_id"`
	Score     float64 `json:"score"`
}

// IsEnriched reports whether both tags and embedding are present.
func (a *Article) IsEnriched() bool {
	return len(a.Tags) > 0 && len(a.Embedding) > 0
}

// Kind implements Enrichable.
func (a *Article) Kind() Kind { return KindArticle }

// EntityID implements Enrichable.
func (a *Article) EntityID() string { return a.ID }

// EnrichmentTags implements Enrichable.
func (a *Article) EnrichmentTags() []Tag { return a.Tags }

// EnrichmentEmbedding implements Enrichable.
func (a *Article) EnrichmentEmbedding() []float32 { return a.Embedding }

// Attempts implements Enrichable.
func (a *Article) Attempts() int { return a.RetryCount }

// NeedsEnrichment reports whether the article still misses tags or an
// embedding. Open-graph metadata is best effort and never keeps an article
// selected.
func (a *Article) NeedsEnrichment() bool {
	return len(a.Tags) == 0 || len(a.Embedding) == 0
}
