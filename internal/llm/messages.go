package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// DefaultMessagesEndpoint is the vendor's Messages API URL. A CORS relay
	// that forwards requests unchanged can be configured instead.
	DefaultMessagesEndpoint = "https://api.anthropic.com/v1/messages"

	messagesAPIVersion = "2023-06-01"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 4 << 20
)

// MessagesProvider speaks the Messages wire protocol directly over HTTP.
type MessagesProvider struct {
	client   *http.Client
	endpoint string
	apiKey   string
	model    string
}

// NewMessagesProvider creates a provider for the given endpoint. A nil
// client uses http.DefaultClient; per-attempt timeouts come from the context.
func NewMessagesProvider(cfg MessagesConfig, client *http.Client) (*MessagesProvider, error) {
	if cfg.APIKey == "" {
		return nil, &ErrAuthentication{Err: errNoCredential}
	}
	if client == nil {
		client = http.DefaultClient
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultMessagesEndpoint
	}
	return &MessagesProvider{
		client:   client,
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		model:    resolveModel(cfg.Model, anthropicModels),
	}, nil
}

type messagesRequest struct {
	Model       string            `json:"model"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Messages    []messagesMessage `json:"messages"`
	Temperature float64           `json:"temperature,omitempty"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string  `json:"type"`
		Text *string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (p *MessagesProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	body := messagesRequest{
		Model:       p.model,
		MaxTokens:   req.MaxTokens,
		System:      req.System,
		Temperature: req.Temperature,
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, messagesMessage{Role: string(m.Role), Content: m.Content})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", messagesAPIVersion)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &ErrTransient{Err: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, &ErrTransient{StatusCode: httpResp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, statusError(httpResp.StatusCode, errors.New(errorMessage(httpResp.StatusCode, raw)))
	}

	var decoded messagesResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &ErrMalformedResponse{Body: string(raw), Err: fmt.Errorf("decode body: %w", err)}
	}
	if len(decoded.Content) == 0 || decoded.Content[0].Text == nil || *decoded.Content[0].Text == "" {
		return nil, &ErrMalformedResponse{Body: string(raw), Err: errors.New("response has no content[0].text")}
	}

	model := decoded.Model
	if model == "" {
		model = p.model
	}
	return &Response{
		Text: *decoded.Content[0].Text,
		Usage: Usage{
			InputTokens:  decoded.Usage.InputTokens,
			OutputTokens: decoded.Usage.OutputTokens,
			TotalTokens:  decoded.Usage.InputTokens + decoded.Usage.OutputTokens,
		},
		Model:      model,
		StopReason: mapStopReason(decoded.StopReason),
	}, nil
}

func (p *MessagesProvider) ModelID() string {
	return p.model
}

// errorMessage extracts the message from an error body. The vendor sends
// {"error":{"message":...}}; the relay may send {"error":"..."}.
func errorMessage(status int, body []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
		var flat string
		if err := json.Unmarshal(envelope.Error, &flat); err == nil && flat != "" {
			return flat
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 && !strings.HasPrefix(text, "{") {
		return text
	}
	return fmt.Sprintf("API request failed: %d %s", status, http.StatusText(status))
}

func mapStopReason(reason string) string {
	if reason == "max_tokens" {
		return "max_tokens"
	}
	return "end"
}
