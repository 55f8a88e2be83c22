package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockProvider_ReturnsCannedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Text: `[{"a":1}]`, Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Text: `{"b":2}`},
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "first"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp1.Text != `[{"a":1}]` {
		t.Fatalf("expected [{\"a\":1}], got %s", resp1.Text)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}
	if resp1.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp1.StopReason)
	}

	resp2, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "second"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp2.Text != `{"b":2}` {
		t.Fatalf("expected {\"b\":2}, got %s", resp2.Text)
	}

	prompts := mock.Prompts()
	if len(prompts) != 2 || prompts[0] != "first" || prompts[1] != "second" {
		t.Fatalf("unexpected prompts %v", prompts)
	}
}

func TestMockProvider_EmptyQueueReturnsTransient(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	var tr *ErrTransient
	if !errors.As(err, &tr) {
		t.Fatalf("expected ErrTransient, got: %T", err)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: `{}`})

	req := Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}
	_, _ = mock.Generate(context.Background(), req)

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	if mock.Calls[0].System != "sys" {
		t.Fatalf("expected system 'sys', got %q", mock.Calls[0].System)
	}
}

func TestMockProvider_ReturnsConfiguredError(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrAuthentication{StatusCode: 401}})

	_, err := mock.Generate(context.Background(), Request{})
	var auth *ErrAuthentication
	if !errors.As(err, &auth) {
		t.Fatalf("expected ErrAuthentication, got: %T", err)
	}
}

func TestMockProvider_ModelID(t *testing.T) {
	mock := NewMockProvider()
	if mock.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", mock.ModelID())
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, PurposeGeneration)
	if p := PurposeFrom(ctx); p != "question-gen" {
		t.Fatalf("expected 'question-gen', got %q", p)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"transient", &ErrTransient{StatusCode: 503}, true},
		{"auth", &ErrAuthentication{StatusCode: 401}, false},
		{"malformed", &ErrMalformedResponse{Body: "<html>"}, false},
		{"untyped", errors.New("boom"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryable(tt.err); got != tt.retryable {
				t.Fatalf("retryable = %v, want %v", got, tt.retryable)
			}
		})
	}

	var auth *ErrAuthentication
	if !errors.As(statusError(403, errors.New("forbidden")), &auth) {
		t.Fatal("403 should classify as authentication")
	}
	var tr *ErrTransient
	if !errors.As(statusError(400, errors.New("bad request")), &tr) {
		t.Fatal("400 should classify as transient")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "messages without key",
			cfg:     Config{Provider: ProviderMessages},
			wantErr: true,
		},
		{
			name:    "messages with key",
			cfg:     Config{Provider: ProviderMessages, Messages: MessagesConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name:    "anthropic without key",
			cfg:     Config{Provider: ProviderAnthropic},
			wantErr: true,
		},
		{
			name:    "anthropic with key",
			cfg:     Config{Provider: ProviderAnthropic, Anthropic: AnthropicConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name:    "openai without key",
			cfg:     Config{Provider: ProviderOpenAI},
			wantErr: true,
		},
		{
			name:    "openai with key",
			cfg:     Config{Provider: ProviderOpenAI, OpenAI: OpenAIConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name:    "mock needs no key",
			cfg:     Config{Provider: ProviderMock},
			wantErr: false,
		},
		{
			name:    "unknown provider",
			cfg:     Config{Provider: "unknown"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_WithCredential(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Credential() != "" {
		t.Fatalf("default config should carry no credential")
	}

	with := cfg.WithCredential("sk-new")
	if with.Credential() != "sk-new" || with.Messages.APIKey != "sk-new" {
		t.Fatalf("credential not applied: %+v", with.Messages)
	}
	if cfg.Credential() != "" {
		t.Fatal("WithCredential must not mutate the receiver")
	}

	cfg.Provider = ProviderGemini
	if got := cfg.WithCredential("g-key").Gemini.APIKey; got != "g-key" {
		t.Fatalf("gemini key = %q", got)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PREPWISE_LLM_PROVIDER", "Messages")
	t.Setenv("PREPWISE_API_KEY", "sk-env")
	t.Setenv("PREPWISE_MODEL", "claude-haiku")
	t.Setenv("PREPWISE_API_ENDPOINT", "https://relay.example/v1/messages")
	t.Setenv("PREPWISE_LLM_TIMEOUT", "15s")
	t.Setenv("PREPWISE_LLM_MAX_ATTEMPTS", "5")

	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderMessages {
		t.Errorf("provider = %q", cfg.Provider)
	}
	if cfg.Messages.APIKey != "sk-env" || cfg.Anthropic.APIKey != "sk-env" {
		t.Errorf("keys = %q / %q", cfg.Messages.APIKey, cfg.Anthropic.APIKey)
	}
	if cfg.Messages.Model != "claude-haiku" {
		t.Errorf("model = %q", cfg.Messages.Model)
	}
	if cfg.Messages.Endpoint != "https://relay.example/v1/messages" {
		t.Errorf("endpoint = %q", cfg.Messages.Endpoint)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("timeout = %v", cfg.Timeout)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("max attempts = %d", cfg.Retry.MaxAttempts)
	}
}

func TestConfigFromEnv_IgnoresBadNumbers(t *testing.T) {
	t.Setenv("PREPWISE_LLM_TIMEOUT", "soon")
	t.Setenv("PREPWISE_LLM_MAX_ATTEMPTS", "-2")

	cfg := ConfigFromEnv()
	def := DefaultConfig()
	if cfg.Timeout != def.Timeout || cfg.Retry.MaxAttempts != def.Retry.MaxAttempts {
		t.Fatalf("expected defaults, got timeout %v attempts %d", cfg.Timeout, cfg.Retry.MaxAttempts)
	}
}

func TestDiscoverConfig(t *testing.T) {
	for _, k := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected no config without keys")
	}

	t.Setenv("OPENAI_API_KEY", "sk-o")
	t.Setenv("GEMINI_API_KEY", "g")
	cfg, ok := DiscoverConfig()
	if !ok || cfg.Provider != ProviderOpenAI || cfg.OpenAI.APIKey != "sk-o" {
		t.Fatalf("unexpected discovery %v %+v", ok, cfg)
	}

	t.Setenv("ANTHROPIC_API_KEY", "sk-a")
	cfg, _ = DiscoverConfig()
	if cfg.Provider != ProviderMessages || cfg.Messages.APIKey != "sk-a" {
		t.Fatalf("anthropic key should win, got %q", cfg.Provider)
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: ProviderMock})
	if err != nil || p.ModelID() != "mock" {
		t.Fatalf("mock provider: %v %v", p, err)
	}

	_, err = NewProvider(context.Background(), Config{Provider: ProviderMessages})
	var auth *ErrAuthentication
	if !errors.As(err, &auth) {
		t.Fatalf("expected ErrAuthentication for missing key, got %v", err)
	}

	if _, err := NewProvider(context.Background(), Config{Provider: "carrier-pigeon"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestLookupCost(t *testing.T) {
	cost := LookupCost("claude-sonnet-4-20250514")
	if cost == nil {
		t.Fatal("expected sonnet pricing")
	}
	if got := cost.Cost(1_000_000, 0); got <= 0 {
		t.Fatalf("expected positive cost, got %v", got)
	}
	if LookupCost("no-such-model") != nil {
		t.Fatal("unexpected pricing for unknown model")
	}
}
