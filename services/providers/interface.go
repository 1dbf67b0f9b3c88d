// Package providers defines the unified LLM provider contract and the typed
// error taxonomy that every backend adapter must translate its failures into.
// The gateway only ever sees these types; no provider-specific error or wire
// format crosses this boundary.
package providers

import (
	"context"
	"time"
)

// Provider is the capability contract for a single LLM backend.
type Provider interface {
	// Name returns the provider identifier (e.g. "openai", "openrouter").
	Name() string

	// Complete sends a completion request and returns the normalized
	// response. On failure it returns a *ProviderError classified into one
	// of the four ErrorType values. Complete must honor both the request
	// Timeout and ctx cancellation as hard upper bounds.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// Message is a single turn in the conversation, normalized across backends.
type Message struct {
	// Role is "system", "user", or "assistant".
	Role string `json:"role" validate:"required,oneof=system user assistant"`

	// Content is the message text.
	Content string `json:"content" validate:"required"`
}

// CompletionRequest is the normalized request handed to an adapter. It
// carries only what the backend needs; routing concerns (task type, priority,
// pinning) are resolved before an adapter is invoked.
type CompletionRequest struct {
	// RequestID correlates adapter activity with gateway log events.
	RequestID string

	// Model is the backend model identifier.
	Model string

	// Messages is the ordered conversation history.
	Messages []Message

	// MaxTokens caps the response length. Zero lets the backend default.
	MaxTokens int

	// Temperature controls sampling randomness.
	Temperature float64

	// Timeout is the hard upper bound for this single attempt.
	Timeout time.Duration
}

// CompletionResponse is the normalized result of a successful attempt.
type CompletionResponse struct {
	// Content is the generated assistant text.
	Content string

	// Model is the model that actually produced the response, as reported
	// by the backend.
	Model string

	// PromptTokens and CompletionTokens are the backend-reported usage.
	PromptTokens     int
	CompletionTokens int

	// Latency is the wall-clock duration of the attempt.
	Latency time.Duration
}

// TotalTokens returns prompt plus completion tokens.
func (r *CompletionResponse) TotalTokens() int {
	return r.PromptTokens + r.CompletionTokens
}
