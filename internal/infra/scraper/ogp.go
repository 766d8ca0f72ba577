package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/resilience/circuitbreaker"
	"lesnouvelles-feed/internal/resilience/retry"
)

// OGPFetcher reads the open-graph metadata of article pages.
type OGPFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	// DenyPrivateIPs rejects links resolving to private networks.
	DenyPrivateIPs bool
}

// NewOGPFetcher returns an OGPFetcher that refuses private addresses.
func NewOGPFetcher(client *http.Client) *OGPFetcher {
	return &OGPFetcher{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.PageFetchConfig()),
		retryConfig:    retry.PageFetchConfig(),
		DenyPrivateIPs: true,
	}
}

// FetchOGP returns the og:* metadata of the page at link. A page without
// any og tag yields an empty, non-nil OGP.
func (f *OGPFetcher) FetchOGP(ctx context.Context, link string) (*entity.OGP, error) {
	return retry.Do(ctx, f.retryConfig, func() (*entity.OGP, error) {
		return circuitbreaker.Run(f.circuitBreaker, func() (*entity.OGP, error) {
			body, err := get(ctx, f.client, link, f.DenyPrivateIPs)
			if err != nil {
				return nil, err
			}
			return ParseOGP(body)
		})
	})
}

// ParseOGP extracts og:* meta tags from an HTML document. Relative
// og:image values are not resolved.
func ParseOGP(html []byte) (*entity.OGP, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	ogp := &entity.OGP{}
	fields := map[string]*string{
		"og:title":       &ogp.Title,
		"og:description": &ogp.Description,
		"og:image":       &ogp.Image,
		"og:site_name":   &ogp.SiteName,
		"og:type":        &ogp.Type,
		"og:url":         &ogp.URL,
	}
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		prop, ok := s.Attr("property")
		if !ok {
			// some publishers use name= for og tags
			prop, ok = s.Attr("name")
		}
		if !ok {
			return
		}
		dst, known := fields[strings.ToLower(strings.TrimSpace(prop))]
		if !known || *dst != "" {
			return
		}
		if content, ok := s.Attr("content"); ok {
			*dst = strings.TrimSpace(content)
		}
	})
	return ogp, nil
}
