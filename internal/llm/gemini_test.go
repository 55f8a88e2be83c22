package llm

import (
	"errors"
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.0-flash"},
		{"gemini-pro", "gemini-2.0-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestMapGeminiError(t *testing.T) {
	var auth *ErrAuthentication
	if err := mapGeminiError(genai.APIError{Code: 401, Message: "API key not valid"}); !errors.As(err, &auth) {
		t.Fatalf("401: expected ErrAuthentication, got %T", err)
	}

	var tr *ErrTransient
	if err := mapGeminiError(genai.APIError{Code: 503, Message: "overloaded"}); !errors.As(err, &tr) || tr.StatusCode != 503 {
		t.Fatalf("503: expected ErrTransient with status, got %v", err)
	}

	if err := mapGeminiError(errors.New("dial tcp: connection refused")); !errors.As(err, &tr) {
		t.Fatalf("network: expected ErrTransient, got %T", err)
	}
}

func TestNewGeminiProvider_RequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(t.Context(), GeminiConfig{Model: "gemini-flash"})
	var auth *ErrAuthentication
	if !errors.As(err, &auth) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}
