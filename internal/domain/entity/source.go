package entity

import (
	"errors"
	"fmt"
	"time"
)

// Source is one entry of the source catalog: a publisher with its RSS feeds
// and the feeds whose order defines its frontpage.
type Source struct {
	Key       string
	Title     string
	Feeds     []FeedRef
	Frontpage []string
}

// FeedRef is an RSS feed URL and the category assigned to its items.
type FeedRef struct {
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
}

// Validate validates the Source entity fields.
func (s *Source) Validate() error {
	if s.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}

	var errs []error
	for i, f := range s.Feeds {
		if err := ValidateURL(f.URL); err != nil {
			errs = append(errs, fmt.Errorf("rss[%d]: %w", i, err))
		}
		if f.Category == "" {
			errs = append(errs, &ValidationError{
				Field:   fmt.Sprintf("rss[%d].category", i),
				Message: "category is required",
			})
		}
	}
	for i, u := range s.Frontpage {
		if err := ValidateURL(u); err != nil {
			errs = append(errs, fmt.Errorf("frontpage[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// FeedItem is one parsed entry of an RSS or Atom feed, before cleaning.
// PublishedAt is zero when the feed gives no usable date.
type FeedItem struct {
	Title       string
	Link        string
	Description string
	PublishedAt time.Time
}
