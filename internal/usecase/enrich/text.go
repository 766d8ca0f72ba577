package enrich

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"lesnouvelles-feed/internal/domain/entity"
)

// ArticleEntityText is the text sent to entity extraction for a.
func ArticleEntityText(a *entity.Article) string {
	return strings.TrimSpace(a.Title + " " + a.Description)
}

// ArticleEmbeddingText adds the article metadata and its tags to the
// title and description so the vector also places the article by outlet
// and topic.
func ArticleEmbeddingText(a *entity.Article, tags []entity.Tag) string {
	if tags == nil {
		tags = []entity.Tag{}
	}
	encoded, _ := json.Marshal(tags)
	return fmt.Sprintf("%s\n%s\nSource: %s, Category: %s, Tags: %s",
		a.Title, a.Description, a.Source, a.Category, encoded)
}

// PromptEntityText is the prompt text with punctuation and symbols turned
// into spaces and whitespace collapsed.
func PromptEntityText(p *entity.Prompt) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, p.Text)
	return strings.Join(strings.Fields(cleaned), " ")
}

// PromptEmbeddingText is the raw prompt text.
func PromptEmbeddingText(p *entity.Prompt) string {
	return p.Text
}

// BannerCaption is the credit line drawn on article banners.
func BannerCaption(source string, year int) string {
	return fmt.Sprintf("© %s %d", source, year)
}
