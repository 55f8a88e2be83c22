package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/prepwise/internal/logger"
	"github.com/abhisek/prepwise/internal/store"
)

// NewProvider creates the bare Provider selected by cfg.
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch cfg.Provider {
	case ProviderMessages:
		p, err = NewMessagesProvider(cfg.Messages, nil)
	case ProviderAnthropic:
		p, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		p, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		p, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		p, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return p, nil
}

// NewGatewayFromConfig builds the full call stack for cfg.
// Middleware order: gateway (retry, timeout) → logging → provider.
// A nil events repo skips event recording.
func NewGatewayFromConfig(ctx context.Context, cfg Config, events store.EventRepo, log *logger.Logger) (*Gateway, error) {
	if log == nil {
		log = logger.Nop()
	}
	base, err := NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logged := WithLogging(base, cfg.Provider, events, log)
	return NewGateway(logged, cfg, WithLogger(log)), nil
}
