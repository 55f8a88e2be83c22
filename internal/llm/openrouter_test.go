package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewOpenRouterProvider_MissingKey(t *testing.T) {
	_, err := NewOpenRouterProvider(OpenRouterConfig{Model: "anthropic/claude-3-haiku"})

	var authErr *ErrAuthentication
	if !errors.As(err, &authErr) {
		t.Fatalf("expected ErrAuthentication, got %T: %v", err, err)
	}
	if authErr.StatusCode != 0 {
		t.Errorf("status = %d, want 0 for a locally missing key", authErr.StatusCode)
	}
	if retryable(err) {
		t.Error("missing key must not be retried")
	}
}

func TestNewOpenRouterProvider_ModelPassThrough(t *testing.T) {
	p, err := NewOpenRouterProvider(OpenRouterConfig{
		APIKey: "sk-or-test",
		Model:  "anthropic/claude-3-haiku",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "anthropic/claude-3-haiku" {
		t.Errorf("model = %q", p.ModelID())
	}
}

func TestOpenRouterProvider_GeneratesAgainstBaseURL(t *testing.T) {
	var gotPath, gotAuth, gotModel string
	var gotMaxTokens int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Model               string `json:"model"`
			MaxCompletionTokens int    `json:"max_completion_tokens"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model
		gotMaxTokens = body.MaxCompletionTokens

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":    "gen-1",
			"model": "anthropic/claude-3-haiku",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": `[{"question":"Q?"}]`},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20},
		})
	}))
	t.Cleanup(server.Close)

	p, err := NewOpenRouterProvider(OpenRouterConfig{
		APIKey:  "sk-or-test",
		Model:   "anthropic/claude-3-haiku",
		BaseURL: server.URL + "/api/v1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "Generate questions."}},
		MaxTokens: 4000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/v1/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer sk-or-test" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotModel != "anthropic/claude-3-haiku" || gotMaxTokens != 4000 {
		t.Errorf("request model = %q max tokens = %d", gotModel, gotMaxTokens)
	}
	if resp.Text != `[{"question":"Q?"}]` {
		t.Errorf("text = %q", resp.Text)
	}
	if resp.Usage.TotalTokens != 20 {
		t.Errorf("total tokens = %d", resp.Usage.TotalTokens)
	}
}

func TestOpenRouterProvider_RejectedKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeOpenAIError(w, http.StatusUnauthorized, "authentication_error", "No auth credentials found")
	}))
	t.Cleanup(server.Close)

	p, err := NewOpenRouterProvider(OpenRouterConfig{
		APIKey:  "sk-or-bad",
		Model:   "anthropic/claude-3-haiku",
		BaseURL: server.URL + "/api/v1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "hi"}},
		MaxTokens: 10,
	})
	var authErr *ErrAuthentication
	if !errors.As(err, &authErr) {
		t.Fatalf("expected ErrAuthentication, got %T: %v", err, err)
	}
	if authErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d", authErr.StatusCode)
	}
}
