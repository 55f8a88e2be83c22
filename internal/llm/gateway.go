package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/abhisek/prepwise/internal/logger"
)

// callState is a step in the gateway's retry state machine.
type callState int

const (
	stateAttempting callState = iota
	stateBackoff
	stateSucceeded
	stateFailedFatal
	stateFailedExhausted
)

func (s callState) String() string {
	switch s {
	case stateAttempting:
		return "attempting"
	case stateBackoff:
		return "backoff"
	case stateSucceeded:
		return "succeeded"
	case stateFailedFatal:
		return "failed-fatal"
	case stateFailedExhausted:
		return "failed-exhausted"
	}
	return "unknown"
}

// Gateway is the single entry point for model calls. It checks the session
// credential, bounds each attempt with a timeout and retries transient
// failures with capped exponential backoff.
type Gateway struct {
	provider          Provider
	missingCredential bool
	retry             RetryConfig
	timeout           time.Duration
	clock             Clock
	log               *logger.Logger
}

// GatewayOption customizes a Gateway.
type GatewayOption func(*Gateway)

// WithClock replaces the clock used for backoff waits.
func WithClock(c Clock) GatewayOption {
	return func(g *Gateway) { g.clock = c }
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *logger.Logger) GatewayOption {
	return func(g *Gateway) { g.log = l }
}

// NewGateway wraps p with the retry and timeout policy from cfg. The
// credential is read from cfg once; Call fails fast when it is empty.
func NewGateway(p Provider, cfg Config, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		provider:          p,
		missingCredential: cfg.Provider != ProviderMock && cfg.Credential() == "",
		retry:             cfg.Retry,
		timeout:           cfg.Timeout,
		clock:             SystemClock,
		log:               logger.Nop(),
	}
	if g.retry.MaxAttempts <= 0 {
		g.retry.MaxAttempts = 1
	}
	if g.retry.Multiplier <= 0 {
		g.retry.Multiplier = 2
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ModelID returns the model of the underlying provider.
func (g *Gateway) ModelID() string {
	return g.provider.ModelID()
}

// Call sends prompt as a single user message and returns the model's raw
// text. systemPrompt may be empty.
func (g *Gateway) Call(ctx context.Context, prompt, systemPrompt string, maxTokens int) (string, error) {
	if g.missingCredential {
		return "", &ErrAuthentication{Err: errNoCredential}
	}

	req := Request{
		System:    systemPrompt,
		Messages:  []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens: maxTokens,
	}

	var (
		state    = stateAttempting
		attempts int
		text     string
		lastErr  error
	)
	for {
		switch state {
		case stateAttempting:
			text, lastErr = g.attempt(ctx, req)
			attempts++
			switch {
			case lastErr == nil:
				state = stateSucceeded
			case ctx.Err() != nil:
				return "", ctx.Err()
			case !retryable(lastErr):
				state = stateFailedFatal
			case attempts >= g.retry.MaxAttempts:
				state = stateFailedExhausted
			default:
				state = stateBackoff
			}

		case stateBackoff:
			wait := g.backoff(attempts)
			g.log.Warn("model call failed, retrying",
				"attempt", attempts,
				"max_attempts", g.retry.MaxAttempts,
				"wait", wait,
				"error", lastErr,
			)
			if err := g.clock.Sleep(ctx, wait); err != nil {
				return "", err
			}
			state = stateAttempting

		case stateSucceeded:
			return text, nil

		case stateFailedFatal:
			g.log.Error("model call failed", "attempt", attempts, "error", lastErr)
			return "", lastErr

		case stateFailedExhausted:
			g.log.Error("model call retries exhausted", "attempts", attempts, "error", lastErr)
			return "", &ErrRetriesExhausted{Attempts: attempts, Err: lastErr}
		}
	}
}

// attempt performs one provider call under the per-attempt timeout.
func (g *Gateway) attempt(ctx context.Context, req Request) (string, error) {
	actx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.provider.Generate(actx, req)
	if err != nil {
		if ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
			return "", &ErrTransient{Err: fmt.Errorf("request timed out after %s: %w", g.timeout, err)}
		}
		return "", err
	}
	return resp.Text, nil
}

// backoff returns the wait before zero-based attempt n (n >= 1).
func (g *Gateway) backoff(n int) time.Duration {
	wait := float64(g.retry.InitialWait) * math.Pow(g.retry.Multiplier, float64(n))
	if ceiling := float64(g.retry.MaxWait); ceiling > 0 && wait > ceiling {
		wait = ceiling
	}
	return time.Duration(wait)
}
