package llm

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderMessages   = "messages"
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config is the session configuration for model access. It is built once at
// process start and passed to the gateway; nothing mutates it afterwards.
type Config struct {
	// Provider selects which backend to use.
	// Values: "messages", "anthropic", "openai", "gemini", "openrouter", "mock"
	Provider string

	Messages   MessagesConfig
	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds a single attempt. Default: 60s.
	Timeout time.Duration
}

// MessagesConfig configures the direct HTTP provider.
type MessagesConfig struct {
	APIKey   string
	Model    string // Default: "claude-sonnet"
	Endpoint string // Default: DefaultMessagesEndpoint, or a relay URL
}

// AnthropicConfig holds Anthropic SDK configuration.
type AnthropicConfig struct {
	APIKey  string
	Model   string // Default: "claude-sonnet"
	BaseURL string // Optional
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "anthropic/claude-sonnet-4"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderMessages,
		Messages: MessagesConfig{
			Model:    "claude-sonnet",
			Endpoint: DefaultMessagesEndpoint,
		},
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "anthropic/claude-sonnet-4",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset or unparsable values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if p := os.Getenv("PREPWISE_LLM_PROVIDER"); p != "" {
		cfg.Provider = strings.ToLower(p)
	}

	// PREPWISE_API_KEY and PREPWISE_MODEL serve both Anthropic backends.
	if k := os.Getenv("PREPWISE_API_KEY"); k != "" {
		cfg.Messages.APIKey = k
		cfg.Anthropic.APIKey = k
	}
	if m := os.Getenv("PREPWISE_MODEL"); m != "" {
		cfg.Messages.Model = m
		cfg.Anthropic.Model = m
	}
	if u := os.Getenv("PREPWISE_API_ENDPOINT"); u != "" {
		cfg.Messages.Endpoint = u
	}
	if u := os.Getenv("PREPWISE_ANTHROPIC_BASE_URL"); u != "" {
		cfg.Anthropic.BaseURL = u
	}

	if k := os.Getenv("PREPWISE_OPENAI_API_KEY"); k != "" {
		cfg.OpenAI.APIKey = k
	}
	if m := os.Getenv("PREPWISE_OPENAI_MODEL"); m != "" {
		cfg.OpenAI.Model = m
	}
	if u := os.Getenv("PREPWISE_OPENAI_BASE_URL"); u != "" {
		cfg.OpenAI.BaseURL = u
	}

	if k := os.Getenv("PREPWISE_GEMINI_API_KEY"); k != "" {
		cfg.Gemini.APIKey = k
	}
	if m := os.Getenv("PREPWISE_GEMINI_MODEL"); m != "" {
		cfg.Gemini.Model = m
	}

	if k := os.Getenv("PREPWISE_OPENROUTER_API_KEY"); k != "" {
		cfg.OpenRouter.APIKey = k
	}
	if m := os.Getenv("PREPWISE_OPENROUTER_MODEL"); m != "" {
		cfg.OpenRouter.Model = m
	}

	if t := os.Getenv("PREPWISE_LLM_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if a := os.Getenv("PREPWISE_LLM_MAX_ATTEMPTS"); a != "" {
		if n, err := strconv.Atoi(a); err == nil && n > 0 {
			cfg.Retry.MaxAttempts = n
		}
	}

	return cfg
}

// DiscoverConfig probes standard API key env vars in priority order
// (Anthropic → OpenAI → Gemini → OpenRouter) and returns a Config for the
// first provider whose key is found. Returns (Config{}, false) if none found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = ProviderMessages
		cfg.Messages.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = ProviderOpenAI
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = ProviderGemini
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = ProviderOpenRouter
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// Credential returns the API key of the selected provider, or "" when none
// is set.
func (c Config) Credential() string {
	switch c.Provider {
	case ProviderMessages:
		return c.Messages.APIKey
	case ProviderAnthropic:
		return c.Anthropic.APIKey
	case ProviderOpenAI:
		return c.OpenAI.APIKey
	case ProviderGemini:
		return c.Gemini.APIKey
	case ProviderOpenRouter:
		return c.OpenRouter.APIKey
	}
	return ""
}

// WithCredential returns a copy of c with key set for the selected provider.
func (c Config) WithCredential(key string) Config {
	switch c.Provider {
	case ProviderMessages:
		c.Messages.APIKey = key
	case ProviderAnthropic:
		c.Anthropic.APIKey = key
	case ProviderOpenAI:
		c.OpenAI.APIKey = key
	case ProviderGemini:
		c.Gemini.APIKey = key
	case ProviderOpenRouter:
		c.OpenRouter.APIKey = key
	}
	return c
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderMessages, ProviderAnthropic:
		if c.Credential() == "" {
			return fmt.Errorf("PREPWISE_API_KEY is required for the %s provider", c.Provider)
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("PREPWISE_OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("PREPWISE_GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderOpenRouter:
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("PREPWISE_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case ProviderMock:
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
