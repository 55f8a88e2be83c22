package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ValidateCredential checks that key is accepted by the provider selected in
// cfg with one tiny request. It bypasses retries and event logging.
func ValidateCredential(ctx context.Context, cfg Config, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return &ErrAuthentication{Err: errNoCredential}
	}

	p, err := NewProvider(ctx, cfg.WithCredential(key))
	if err != nil {
		return err
	}
	return validateWith(ctx, p, cfg.Timeout)
}

func validateWith(ctx context.Context, p Provider, timeout time.Duration) error {
	ctx = WithPurpose(ctx, PurposeKeyCheck)
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	_, err := p.Generate(ctx, Request{
		Messages:  []Message{{Role: RoleUser, Content: "test"}},
		MaxTokens: 10,
	})
	if err != nil {
		return fmt.Errorf("validate API key: %w", err)
	}
	return nil
}
