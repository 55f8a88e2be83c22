package llm

import "context"

// Provider is one network call to a text-generation model. Providers map
// their failures onto ErrAuthentication, ErrMalformedResponse and
// ErrTransient; retry and timeout policy live in Gateway.
type Provider interface {
	// Generate sends a prompt to the model and returns its raw text reply.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System is the system prompt. Omitted from the wire when empty.
	System string

	// Messages is the conversation. Gateway calls always send one user
	// message.
	Messages []Message

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	// Zero leaves the provider default.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response holds the model's output.
type Response struct {
	// Text is the model's raw reply, e.g. a JSON array wrapped in prose.
	Text string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
