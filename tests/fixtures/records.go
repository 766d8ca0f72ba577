// Package fixtures provides test records, in-memory repositories and vector
// helpers shared by the use case and worker tests.
package fixtures

import (
	"time"

	"lesnouvelles-feed/internal/domain/entity"
)

// BaseTime is the fixed clock used by fixture records.
var BaseTime = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

// ArticleOption customizes NewArticle.
type ArticleOption func(*entity.Article)

// NewArticle returns an unenriched article published at BaseTime.
func NewArticle(id string, opts ...ArticleOption) *entity.Article {
	a := &entity.Article{
		ID:          id,
		Link:        "https://news.example.com/" + id,
		Title:       "Title " + id,
		Description: "Description " + id,
		Source:      "lemonde",
		Category:    "actualites",
		PublishedAt: BaseTime,
		CreatedAt:   BaseTime,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func WithLink(link string) ArticleOption {
	return func(a *entity.Article) { a.Link = link }
}

func WithText(title, description string) ArticleOption {
	return func(a *entity.Article) { a.Title, a.Description = title, description }
}

func WithSource(source, category string) ArticleOption {
	return func(a *entity.Article) { a.Source, a.Category = source, category }
}

// WithPublishedAt offsets the publish date from BaseTime.
func WithPublishedAt(offset time.Duration) ArticleOption {
	return func(a *entity.Article) { a.PublishedAt = BaseTime.Add(offset) }
}

func WithTags(texts ...string) ArticleOption {
	return func(a *entity.Article) { a.Tags = Tags(texts...) }
}

func WithEmbedding(v []float32) ArticleOption {
	return func(a *entity.Article) { a.Embedding = v }
}

func WithRetryCount(n int) ArticleOption {
	return func(a *entity.Article) { a.RetryCount = n }
}

func WithOGP(o *entity.OGP) ArticleOption {
	return func(a *entity.Article) { a.OGP = o }
}

func WithFrontpageRank(rank int) ArticleOption {
	return func(a *entity.Article) { a.FrontpageRank = rank }
}

// Enriched sets tags, embedding and a minimal OGP, as a fully decorated
// article looks after its enrichment pass.
func Enriched(v []float32, tags ...string) ArticleOption {
	return func(a *entity.Article) {
		a.Tags = Tags(tags...)
		a.Embedding = v
		a.OGP = &entity.OGP{Title: a.Title}
	}
}

// PromptOption customizes NewPrompt.
type PromptOption func(*entity.Prompt)

// NewPrompt returns an enabled, unenriched prompt created at BaseTime.
func NewPrompt(id, text string, opts ...PromptOption) *entity.Prompt {
	p := &entity.Prompt{
		ID:         id,
		Key:        "0badc0de",
		Text:       text,
		Enabled:    true,
		LastUsedAt: BaseTime,
		CreatedAt:  BaseTime,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func PromptTags(texts ...string) PromptOption {
	return func(p *entity.Prompt) { p.Tags = Tags(texts...) }
}

func PromptEmbedding(v []float32) PromptOption {
	return func(p *entity.Prompt) { p.Embedding = v }
}

func PromptSettings(s entity.PromptSettings) PromptOption {
	return func(p *entity.Prompt) { p.Settings = s }
}

func PromptRetryCount(n int) PromptOption {
	return func(p *entity.Prompt) { p.RetryCount = n }
}

// PromptCreatedAt offsets the creation date from BaseTime.
func PromptCreatedAt(offset time.Duration) PromptOption {
	return func(p *entity.Prompt) { p.CreatedAt = BaseTime.Add(offset) }
}

// PromptLastUsed offsets last use from BaseTime.
func PromptLastUsed(offset time.Duration) PromptOption {
	return func(p *entity.Prompt) { p.LastUsedAt = BaseTime.Add(offset) }
}

func PromptFeed(entries ...entity.FeedEntry) PromptOption {
	return func(p *entity.Prompt) { p.Feed = entries }
}

func PromptDisabled() PromptOption {
	return func(p *entity.Prompt) { p.Enabled = false }
}

// Tags builds MISC-labelled tags from texts.
func Tags(texts ...string) []entity.Tag {
	if len(texts) == 0 {
		return nil
	}
	tags := make([]entity.Tag, len(texts))
	for i, t := range texts {
		tags[i] = entity.Tag{Text: t, Label: "MISC"}
	}
	return tags
}
