package textanalysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"lesnouvelles-feed/internal/domain/entity"
	"lesnouvelles-feed/internal/observability/metrics"
	"lesnouvelles-feed/internal/resilience/circuitbreaker"
	"lesnouvelles-feed/internal/resilience/retry"
)

const claudeMaxTokens = 1024

// Claude extracts entities with the Anthropic Messages API. It has no
// embedding endpoint.
type Claude struct {
	client         anthropic.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	model          string
	timeout        time.Duration
}

// NewClaude returns a Claude adapter. Extra request options, such as
// option.WithBaseURL in tests, are passed to the client.
func NewClaude(cfg Config, opts ...option.RequestOption) *Claude {
	opts = append([]option.RequestOption{option.WithAPIKey(cfg.AnthropicAPIKey)}, opts...)
	return &Claude{
		client:         anthropic.NewClient(opts...),
		circuitBreaker: circuitbreaker.New(circuitbreaker.TextAnalysisConfig(ProviderClaude)),
		retryConfig:    retry.TextAnalysisConfig(),
		model:          cfg.ClaudeModel,
		timeout:        cfg.Timeout,
	}
}

// ExtractEntities asks Claude for the entities of text.
func (c *Claude) ExtractEntities(ctx context.Context, text string) (tags []entity.Tag, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordTextAnalysis(ProviderClaude, "entities", err == nil, time.Since(start)) }()

	return retry.Do(ctx, c.retryConfig, func() ([]entity.Tag, error) {
		return circuitbreaker.Run(c.circuitBreaker, func() ([]entity.Tag, error) {
			message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
				Model:     anthropic.Model(c.model),
				MaxTokens: claudeMaxTokens,
				System:    []anthropic.TextBlockParam{{Text: entityInstruction}},
				Messages: []anthropic.MessageParam{
					anthropic.NewUserMessage(anthropic.NewTextBlock(clip(text))),
				},
			})
			if err != nil {
				return nil, claudeError(err)
			}

			var answer strings.Builder
			for _, block := range message.Content {
				if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
					answer.WriteString(tb.Text)
				}
			}
			if answer.Len() == 0 {
				return nil, ErrEmptyResponse
			}
			return parseEntities(answer.String())
		})
	})
}

// Embed is not offered by Claude.
func (c *Claude) Embed(context.Context, string) ([]float32, error) {
	return nil, ErrUnsupported
}

func claudeError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &retry.HTTPError{StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
	}
	return fmt.Errorf("claude api error: %w", err)
}
