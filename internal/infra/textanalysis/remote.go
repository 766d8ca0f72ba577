package textanalysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/observability/metrics"
	"lesnouvelles-feed/internal/resilience/circuitbreaker"
	"lesnouvelles-feed/internal/resilience/retry"
)

const maxRemoteResponse = 4 * 1024 * 1024

// Remote talks to a self-hosted model server exposing
//
//	POST {base}/ner    {"text": "..."} -> {"entities": [{"entity": "...", "label": "..."}]}
//	POST {base}/embed  {"text": "..."} -> {"embedding": [0.1, ...]}
//
// Labels may carry BIO prefixes; they are normalised like the hosted
// providers' answers.
type Remote struct {
	baseURL        string
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewRemote returns a Remote adapter for the server at cfg.RemoteURL.
func NewRemote(cfg Config, client *http.Client) *Remote {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Remote{
		baseURL:        strings.TrimRight(cfg.RemoteURL, "/"),
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.TextAnalysisConfig(ProviderRemote)),
		retryConfig:    retry.TextAnalysisConfig(),
	}
}

type remoteRequest struct {
	Text string `json:"text"`
}

type remoteEntity struct {
	Entity string `json:"entity"`
	Label  string `json:"label"`
}

type remoteNERResponse struct {
	Entities []remoteEntity `json:"entities"`
}

type remoteEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// ExtractEntities calls the /ner endpoint.
func (r *Remote) ExtractEntities(ctx context.Context, text string) (tags []entity.Tag, err error) {
	start := time.Now()
	defer func() { metrics.RecordTextAnalysis(ProviderRemote, "entities", err == nil, time.Since(start)) }()

	var resp remoteNERResponse
	if err := r.call(ctx, "/ner", text, &resp); err != nil {
		return nil, err
	}
	tags = make([]entity.Tag, 0, len(resp.Entities))
	for _, e := range resp.Entities {
		tags = append(tags, entity.Tag{Text: e.Entity, Label: e.Label})
	}
	return normalizeTags(tags), nil
}

// Embed calls the /embed endpoint.
func (r *Remote) Embed(ctx context.Context, text string) (vec []float32, err error) {
	start := time.Now()
	defer func() { metrics.RecordTextAnalysis(ProviderRemote, "embed", err == nil, time.Since(start)) }()

	var resp remoteEmbedResponse
	if err := r.call(ctx, "/embed", text, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, ErrEmptyResponse
	}
	return resp.Embedding, nil
}

func (r *Remote) call(ctx context.Context, path, text string, out any) error {
	body, err := json.Marshal(remoteRequest{Text: text})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	data, err := retry.Do(ctx, r.retryConfig, func() ([]byte, error) {
		return circuitbreaker.Run(r.circuitBreaker, func() ([]byte, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
			if err != nil {
				return nil, fmt.Errorf("create request: %w", err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := r.client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("%s request failed: %w", path, err)
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode != http.StatusOK {
				return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
			}
			return io.ReadAll(io.LimitReader(resp.Body, maxRemoteResponse))
		})
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
