package textanalysis

import (
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"

	"lesnouvelles-feed/internal/pkg/config"
)

// Config selects and configures the text-analysis provider.
type Config struct {
	// Provider is one of ProviderOpenAI, ProviderClaude or ProviderRemote.
	// Claude has no embedding endpoint, so ProviderClaude pairs Claude NER
	// with OpenAI embeddings.
	Provider string

	OpenAIAPIKey   string
	OpenAIBaseURL  string
	EmbeddingModel string
	ChatModel      string

	AnthropicAPIKey string
	ClaudeModel     string

	// RemoteURL is the base URL of the self-hosted model server.
	RemoteURL string

	// Timeout bounds one provider call.
	Timeout time.Duration

	// CacheSize is the number of entries per operation kept by Cached.
	// Zero disables caching.
	CacheSize int
}

// DefaultConfig returns the defaults used when no variable is set.
func DefaultConfig() Config {
	return Config{
		Provider:       ProviderOpenAI,
		EmbeddingModel: string(openai.SmallEmbedding3),
		ChatModel:      openai.GPT4oMini,
		ClaudeModel:    string(anthropic.ModelClaudeSonnet4_5_20250929),
		RemoteURL:      "http://localhost:8000",
		Timeout:        60 * time.Second,
		CacheSize:      1024,
	}
}

// Validate checks that the selected provider has what it needs.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider %q", c.Provider)
		}
	case ProviderClaude:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for provider %q", c.Provider)
		}
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for embeddings with provider %q", c.Provider)
		}
	case ProviderRemote:
		if c.RemoteURL == "" {
			return fmt.Errorf("TEXT_ANALYSIS_URL is required for provider %q", c.Provider)
		}
	default:
		return fmt.Errorf("unknown text analysis provider %q", c.Provider)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size must be non-negative, got %d", c.CacheSize)
	}
	return nil
}

// LoadConfigFromEnv reads the text-analysis variables. Malformed values
// fall back to DefaultConfig and are reported as warnings; missing keys are
// left for Validate.
//
//	TEXT_ANALYSIS_PROVIDER    openai | claude | remote (openai)
//	TEXT_ANALYSIS_URL         remote model server base URL
//	TEXT_ANALYSIS_TIMEOUT     duration (60s)
//	TEXT_ANALYSIS_CACHE_SIZE  int (1024)
//	OPENAI_API_KEY, OPENAI_BASE_URL, OPENAI_EMBEDDING_MODEL, OPENAI_CHAT_MODEL
//	ANTHROPIC_API_KEY, CLAUDE_MODEL
func LoadConfigFromEnv(m *config.ConfigMetrics) (Config, []string) {
	cfg := DefaultConfig()
	var warnings []string

	r := config.LoadEnvWithFallback("TEXT_ANALYSIS_PROVIDER", cfg.Provider, func(v string) error {
		switch v {
		case ProviderOpenAI, ProviderClaude, ProviderRemote:
			return nil
		}
		return fmt.Errorf("unknown provider")
	})
	warnings = append(warnings, m.Track("text_analysis_provider", r)...)
	cfg.Provider = r.Value.(string)

	r = config.LoadEnvDuration("TEXT_ANALYSIS_TIMEOUT", cfg.Timeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Second, 10*time.Minute)
	})
	warnings = append(warnings, m.Track("text_analysis_timeout", r)...)
	cfg.Timeout = r.Value.(time.Duration)

	r = config.LoadEnvInt("TEXT_ANALYSIS_CACHE_SIZE", cfg.CacheSize, func(v int) error {
		return config.ValidateIntRange(v, 0, 1_000_000)
	})
	warnings = append(warnings, m.Track("text_analysis_cache_size", r)...)
	cfg.CacheSize = r.Value.(int)

	cfg.RemoteURL = config.LoadEnvString("TEXT_ANALYSIS_URL", cfg.RemoteURL)
	cfg.OpenAIAPIKey = config.LoadEnvString("OPENAI_API_KEY", "")
	cfg.OpenAIBaseURL = config.LoadEnvString("OPENAI_BASE_URL", "")
	cfg.EmbeddingModel = config.LoadEnvString("OPENAI_EMBEDDING_MODEL", cfg.EmbeddingModel)
	cfg.ChatModel = config.LoadEnvString("OPENAI_CHAT_MODEL", cfg.ChatModel)
	cfg.AnthropicAPIKey = config.LoadEnvString("ANTHROPIC_API_KEY", "")
	cfg.ClaudeModel = config.LoadEnvString("CLAUDE_MODEL", cfg.ClaudeModel)

	return cfg, warnings
}
