package entity

// Kind identifies which record type an Enrichable is.
type Kind string

const (
	KindArticle Kind = "article"
	KindPrompt  Kind = "prompt"
)

// Tag is a named-entity extraction result.
type Tag struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Enrichable is the state shared by Articles and Prompts that the enrichment
// pipeline and the scoring engine operate on.
type Enrichable interface {
	Kind() Kind
	EntityID() string
	EnrichmentTags() []Tag
	EnrichmentEmbedding() []float32
	Attempts() int
	NeedsEnrichment() bool
}

// TagTexts returns the distinct entity texts of tags, preserving first occurrence order.
func TagTexts(tags []Tag) []string {
	seen := make(map[string]struct{}, len(tags))
	texts := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t.Text]; ok {
			continue
		}
		seen[t.Text] = struct{}{}
		texts = append(texts, t.Text)
	}
	return texts
}

// EnrichmentUpdate is the set of fields persisted at the end of one
// enrichment pass over an item. Tags and Embedding are always written;
// a nil OGP or Image leaves the stored value untouched.
type EnrichmentUpdate struct {
	Tags       []Tag
	Embedding  []float32
	OGP        *OGP
	Image      *string
	RetryCount int
}
