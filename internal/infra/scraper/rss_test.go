package scraper_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/infra/scraper"
	"lesnouvelles-feed/internal/resilience/retry"
)

const laPresseRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
  <channel>
    <title>La Presse - Actualités</title>
    <link>https://www.lapresse.ca/actualites</link>
    <item>
      <title>Le REM accueille ses premiers passagers sur la Rive-Nord</title>
      <link>https://www.lapresse.ca/actualites/2025-06-01/rem.php</link>
      <description>&lt;p&gt;Le tronçon Deux-Montagnes ouvre enfin.&lt;/p&gt;</description>
      <pubDate>Sun, 01 Jun 2025 08:30:00 -0400</pubDate>
    </item>
    <item>
      <title>Canicule : Montréal ouvre ses piscines plus tôt</title>
      <link>https://www.lapresse.ca/actualites/2025-06-01/canicule.php</link>
      <content:encoded><![CDATA[Les piscines extérieures ouvriront samedi.]]></content:encoded>
    </item>
  </channel>
</rss>`

const leDevoirAtom = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Le Devoir - Politique</title>
  <updated>2025-06-01T12:00:00Z</updated>
  <entry>
    <title>Québec dépose son budget</title>
    <link href="https://www.ledevoir.com/politique/quebec/budget"/>
    <id>budget</id>
    <updated>2025-06-01T12:00:00Z</updated>
    <summary>Un déficit plus important que prévu.</summary>
  </entry>
</feed>`

func feedServer(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, scraper.UserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRSSFetcher_Fetch(t *testing.T) {
	toronto, err := time.LoadLocation("America/Toronto")
	require.NoError(t, err)

	tests := []struct {
		name        string
		contentType string
		body        string
		want        []entity.FeedItem
	}{
		{
			name:        "rss with encoded content fallback",
			contentType: "application/rss+xml",
			body:        laPresseRSS,
			want: []entity.FeedItem{
				{
					Title:       "Le REM accueille ses premiers passagers sur la Rive-Nord",
					Link:        "https://www.lapresse.ca/actualites/2025-06-01/rem.php",
					Description: "<p>Le tronçon Deux-Montagnes ouvre enfin.</p>",
					PublishedAt: time.Date(2025, 6, 1, 8, 30, 0, 0, toronto),
				},
				{
					Title:       "Canicule : Montréal ouvre ses piscines plus tôt",
					Link:        "https://www.lapresse.ca/actualites/2025-06-01/canicule.php",
					Description: "Les piscines extérieures ouvriront samedi.",
				},
			},
		},
		{
			name:        "atom uses updated date",
			contentType: "application/atom+xml",
			body:        leDevoirAtom,
			want: []entity.FeedItem{{
				Title:       "Québec dépose son budget",
				Link:        "https://www.ledevoir.com/politique/quebec/budget",
				Description: "Un déficit plus important que prévu.",
				PublishedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			}},
		},
		{
			name:        "empty channel",
			contentType: "application/rss+xml",
			body:        `<?xml version="1.0"?><rss version="2.0"><channel><title>Vide</title></channel></rss>`,
			want:        []entity.FeedItem{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := feedServer(t, tt.contentType, tt.body)
			fetcher := scraper.NewRSSFetcher(&http.Client{Timeout: 5 * time.Second})

			items, err := fetcher.Fetch(context.Background(), server.URL)
			require.NoError(t, err)
			require.Len(t, items, len(tt.want))
			for i, want := range tt.want {
				assert.Equal(t, want.Title, items[i].Title)
				assert.Equal(t, want.Link, items[i].Link)
				assert.Equal(t, want.Description, items[i].Description)
				assert.True(t, want.PublishedAt.Equal(items[i].PublishedAt),
					"published %v, want %v", items[i].PublishedAt, want.PublishedAt)
			}
		})
	}
}

func TestRSSFetcher_Fetch_InvalidXML(t *testing.T) {
	server := feedServer(t, "application/rss+xml", "pas du XML <><><>")
	fetcher := scraper.NewRSSFetcher(&http.Client{Timeout: 5 * time.Second})

	_, err := fetcher.Fetch(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestRSSFetcher_Fetch_ContextCanceled(t *testing.T) {
	server := feedServer(t, "application/rss+xml", laPresseRSS)
	fetcher := scraper.NewRSSFetcher(&http.Client{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.Fetch(ctx, server.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRSSFetcher_Fetch_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	fetcher := scraper.NewRSSFetcher(&http.Client{Timeout: 5 * time.Second})

	_, err := fetcher.Fetch(context.Background(), server.URL)
	var httpErr *retry.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRSSFetcher_Fetch_RetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(leDevoirAtom))
	}))
	defer server.Close()

	fetcher := scraper.NewRSSFetcher(&http.Client{Timeout: 5 * time.Second})

	items, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int32(2), calls.Load())
}
