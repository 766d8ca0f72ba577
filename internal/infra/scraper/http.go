package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/resilience/retry"
)

const maxBodySize = 10 * 1024 * 1024 // 10MB

// ErrBodyTooLarge indicates a response exceeded maxBodySize.
var ErrBodyTooLarge = errors.New("response body too large")

// get fetches url and returns its body, capped at maxBodySize. Non-200
// responses become *retry.HTTPError so 5xx and 429 are retried.
func get(ctx context.Context, client *http.Client, url string, denyPrivate bool) ([]byte, error) {
	if denyPrivate {
		if err := entity.ValidateURL(url); err != nil {
			return nil, err
		}
	} else if err := entity.ValidateLink(url); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status: %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}
