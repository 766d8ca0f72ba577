package textanalysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/observability/logging"
	"lesnouvelles-feed/internal/observability/metrics"
	"lesnouvelles-feed/internal/resilience/circuitbreaker"
	"lesnouvelles-feed/internal/resilience/retry"
)

// OpenAI embeds text with the embeddings endpoint and extracts entities
// with a chat completion.
type OpenAI struct {
	client         *openai.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	embeddingModel string
	chatModel      string
	timeout        time.Duration
}

// NewOpenAI returns an OpenAI adapter. cfg.OpenAIBaseURL, when set,
// points the client at a compatible server.
func NewOpenAI(cfg Config) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}
	return &OpenAI{
		client:         openai.NewClientWithConfig(clientCfg),
		circuitBreaker: circuitbreaker.New(circuitbreaker.TextAnalysisConfig(ProviderOpenAI)),
		retryConfig:    retry.TextAnalysisConfig(),
		embeddingModel: cfg.EmbeddingModel,
		chatModel:      cfg.ChatModel,
		timeout:        cfg.Timeout,
	}
}

// Embed returns the embedding of text.
func (o *OpenAI) Embed(ctx context.Context, text string) (vec []float32, err error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordTextAnalysis(ProviderOpenAI, "embed", err == nil, time.Since(start)) }()

	return retry.Do(ctx, o.retryConfig, func() ([]float32, error) {
		return circuitbreaker.Run(o.circuitBreaker, func() ([]float32, error) {
			resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
				Input: []string{clip(text)},
				Model: openai.EmbeddingModel(o.embeddingModel),
			})
			if err != nil {
				return nil, openAIError(err)
			}
			if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
				return nil, ErrEmptyResponse
			}
			return resp.Data[0].Embedding, nil
		})
	})
}

// ExtractEntities asks the chat model for the entities of text.
func (o *OpenAI) ExtractEntities(ctx context.Context, text string) (tags []entity.Tag, err error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordTextAnalysis(ProviderOpenAI, "entities", err == nil, time.Since(start)) }()

	return retry.Do(ctx, o.retryConfig, func() ([]entity.Tag, error) {
		return circuitbreaker.Run(o.circuitBreaker, func() ([]entity.Tag, error) {
			resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model: o.chatModel,
				Messages: []openai.ChatCompletionMessage{
					{Role: openai.ChatMessageRoleSystem, Content: entityInstruction},
					{Role: openai.ChatMessageRoleUser, Content: clip(text)},
				},
			})
			if err != nil {
				return nil, openAIError(err)
			}
			if len(resp.Choices) == 0 {
				return nil, ErrEmptyResponse
			}
			tags, err := parseEntities(resp.Choices[0].Message.Content)
			if err != nil {
				logging.FromContext(ctx).WarnContext(ctx, "unparseable entity answer",
					logging.Err(err))
			}
			return tags, err
		})
	})
}

// openAIError exposes the HTTP status of API failures so 429 and 5xx
// answers are retried.
func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &retry.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &retry.HTTPError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}
	return fmt.Errorf("openai api error: %w", err)
}
