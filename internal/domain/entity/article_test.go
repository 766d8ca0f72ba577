package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArticle_IsEnriched(t *testing.T) {
	tags := []Tag{{Text: "Montréal", Label: "LOC"}}
	vec := []float32{0.1, 0.2}

	tests := []struct {
		name    string
		article Article
		want    bool
	}{
		{name: "empty", article: Article{}, want: false},
		{name: "tags only", article: Article{Tags: tags}, want: false},
		{name: "embedding only", article: Article{Embedding: vec}, want: false},
		{name: "both", article: Article{Tags: tags, Embedding: vec}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.article.IsEnriched())
		})
	}
}

func TestArticle_NeedsEnrichment(t *testing.T) {
	tags := []Tag{{Text: "Québec", Label: "LOC"}}
	vec := []float32{1}
	ogp := &OGP{Title: "t"}

	assert.True(t, (&Article{}).NeedsEnrichment())
	assert.True(t, (&Article{Embedding: vec, OGP: ogp}).NeedsEnrichment())
	assert.True(t, (&Article{Tags: tags, OGP: ogp}).NeedsEnrichment())
	assert.False(t, (&Article{Tags: tags, Embedding: vec}).NeedsEnrichment(), "missing OGP is not enrichment work")
	assert.False(t, (&Article{Tags: tags, Embedding: vec, OGP: &OGP{}}).NeedsEnrichment())
	assert.False(t, (&Article{Tags: tags, Embedding: vec, OGP: ogp}).NeedsEnrichment())
}

func TestArticle_Enrichable(t *testing.T) {
	a := &Article{ID: "a1", Tags: []Tag{{Text: "x", Label: "MISC"}}, Embedding: []float32{1}, RetryCount: 2}

	var e Enrichable = a
	assert.Equal(t, KindArticle, e.Kind())
	assert.Equal(t, "a1", e.EntityID())
	assert.Equal(t, a.Tags, e.EnrichmentTags())
	assert.Equal(t, a.Embedding, e.EnrichmentEmbedding())
	assert.Equal(t, 2, e.Attempts())
}

func TestOGP_IsEmpty(t *testing.T) {
	var nilOGP *OGP
	assert.True(t, nilOGP.IsEmpty())
	assert.True(t, (&OGP{}).IsEmpty())
	assert.False(t, (&OGP{Image: "https://cdn.example.com/a.jpg"}).IsEmpty())
}

func TestTagTexts(t *testing.T) {
	tags := []Tag{
		{Text: "Montréal", Label: "LOC"},
		{Text: "Canadiens", Label: "ORG"},
		{Text: "Montréal", Label: "LOC"},
	}
	assert.Equal(t, []string{"Montréal", "Canadiens"}, TagTexts(tags))
	assert.Empty(t, TagTexts(nil))
}
