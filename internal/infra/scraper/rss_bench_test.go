package scraper_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lesnouvelles-feed/internal/infra/scraper"
)

func feedWithItems(n int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>Bench</title>`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<item><title>Article %d</title><link>https://example.com/%d</link>`+
			`<description>&lt;p&gt;Description %d&lt;/p&gt;</description>`+
			`<pubDate>Mon, 01 Jan 2024 00:00:00 +0000</pubDate></item>`, i, i, i)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func BenchmarkRSSFetcher_Fetch(b *testing.B) {
	for _, n := range []int{10, 50, 200} {
		b.Run(fmt.Sprintf("items=%d", n), func(b *testing.B) {
			body := feedWithItems(n)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/rss+xml")
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			fetcher := scraper.NewRSSFetcher(&http.Client{Timeout: 10 * time.Second})
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = fetcher.Fetch(context.Background(), server.URL)
			}
		})
	}
}
