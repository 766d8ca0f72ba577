// Package scraper reads the web resources the pipeline depends on: RSS and
// Atom feeds, open-graph metadata of article pages, and the og:image used
// to derive article banners.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/observability/logging"
	"lesnouvelles-feed/internal/resilience/circuitbreaker"
	"lesnouvelles-feed/internal/resilience/retry"
)

// UserAgent identifies the harvester to publishers.
const UserAgent = "LesNouvellesBot/1.0 (+https://lesnouvelles.quebec)"

// RSSFetcher fetches and parses feeds with gofeed, behind retry and a
// circuit breaker shared by every feed.
type RSSFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewRSSFetcher creates a new RSSFetcher with the given HTTP client.
func NewRSSFetcher(client *http.Client) *RSSFetcher {
	return &RSSFetcher{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

// Fetch retrieves and parses the feed at feedURL. Items keep feed order.
func (f *RSSFetcher) Fetch(ctx context.Context, feedURL string) ([]entity.FeedItem, error) {
	return retry.Do(ctx, f.retryConfig, func() ([]entity.FeedItem, error) {
		items, err := circuitbreaker.Run(f.circuitBreaker, func() ([]entity.FeedItem, error) {
			return f.doFetch(ctx, feedURL)
		})
		if errors.Is(err, gobreaker.ErrOpenState) {
			logging.FromContext(ctx).Warn("feed fetch circuit breaker open, request rejected",
				slog.String("url", feedURL),
				slog.String("state", f.circuitBreaker.State().String()))
		}
		return items, err
	})
}

func (f *RSSFetcher) doFetch(ctx context.Context, feedURL string) ([]entity.FeedItem, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = UserAgent
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &retry.HTTPError{StatusCode: httpErr.StatusCode, Message: httpErr.Status}
		}
		return nil, err
	}

	items := make([]entity.FeedItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		item := entity.FeedItem{
			Title:       it.Title,
			Link:        it.Link,
			Description: it.Description,
		}
		if item.Description == "" {
			item.Description = it.Content
		}
		switch {
		case it.PublishedParsed != nil:
			item.PublishedAt = *it.PublishedParsed
		case it.UpdatedParsed != nil:
			item.PublishedAt = *it.UpdatedParsed
		}
		items = append(items, item)
	}
	return items, nil
}
