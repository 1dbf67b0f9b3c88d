// Package gateway implements the language-model request gateway: it resolves
// an ordered chain of (provider, model) candidates for a request, walks the
// chain with bounded per-candidate retries, and falls back deterministically
// to the next candidate on terminal failure.
package gateway

import (
	"errors"
	"fmt"
	"time"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/providers"
)

// ReasonProviderUnavailable marks a candidate skipped without a network call
// because its provider was unavailable in the call's snapshot.
const ReasonProviderUnavailable = "provider_unavailable"

// Request is a caller-constructed, immutable completion request.
type Request struct {
	// RequestID correlates log events, usage rows, and the response.
	RequestID string `json:"request_id"`

	// TaskType is the caller-declared work category, the primary key into
	// the routing table.
	TaskType string `json:"task_type"`

	// Priority selects a latency/quality tradeoff tier. Empty means
	// "balanced".
	Priority string `json:"priority,omitempty"`

	// Purpose is a free-form caller annotation carried into usage records.
	Purpose string `json:"purpose,omitempty"`

	// PinnedProvider and PinnedModel bypass the routing table. The pin is
	// atomic: both must be set or both empty.
	PinnedProvider string `json:"pinned_provider,omitempty"`
	PinnedModel    string `json:"pinned_model,omitempty"`

	// Messages is the ordered conversation history.
	Messages []providers.Message `json:"messages"`

	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`

	// Timeout is the hard per-attempt upper bound. Must be positive.
	Timeout time.Duration `json:"timeout_ms"`

	// MaxRetries bounds extra attempts per candidate. Nil means the
	// gateway default for routed requests and zero for pinned requests.
	MaxRetries *int `json:"max_retries,omitempty"`
}

// Pinned reports whether the request names an explicit (provider, model).
func (r *Request) Pinned() bool {
	return r.PinnedProvider != "" || r.PinnedModel != ""
}

// Validate checks construction-time invariants. Out-of-range retry and
// timeout values are rejected here rather than silently clamped.
func (r *Request) Validate() error {
	if r.RequestID == "" {
		return NewInvalidRequestError("request_id is required")
	}
	if len(r.Messages) == 0 {
		return NewInvalidRequestError("messages must not be empty")
	}
	if r.Timeout <= 0 {
		return NewInvalidRequestError("timeout must be positive")
	}
	if r.MaxRetries != nil && *r.MaxRetries < 0 {
		return NewInvalidRequestError("max_retries must not be negative")
	}
	if (r.PinnedProvider == "") != (r.PinnedModel == "") {
		return NewInvalidRequestError("pinned_provider and pinned_model must be set together")
	}
	if !r.Pinned() && r.TaskType == "" {
		return NewInvalidRequestError("task_type is required for unpinned requests")
	}
	return nil
}

// retryBudget returns the number of extra attempts allowed per candidate.
func (r *Request) retryBudget(defaultRetries int) int {
	if r.MaxRetries != nil {
		return *r.MaxRetries
	}
	if r.Pinned() {
		return 0
	}
	return defaultRetries
}

// FallbackHop records one candidate skipped or exhausted before the eventual
// outcome.
type FallbackHop struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Reason   string `json:"reason"`
}

// Response is created exactly once, from the first successful attempt.
type Response struct {
	RequestID    string        `json:"request_id"`
	Provider     string        `json:"provider"`
	Model        string        `json:"model"`
	Content      string        `json:"content"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	LatencyMs    int64         `json:"latency_ms"`
	Attempts     int           `json:"attempts"`
	FallbackPath []FallbackHop `json:"fallback_path,omitempty"`
}

// ErrorCode distinguishes the gateway's terminal failure modes.
type ErrorCode string

const (
	// CodeInvalidRequest means the request failed construction-time
	// validation; nothing was attempted.
	CodeInvalidRequest ErrorCode = "invalid_request"

	// CodeNoProviderAvailable means the chain resolved to nothing usable:
	// either no candidates are configured or every one was skipped without
	// a network call. A configuration error, not a transient one.
	CodeNoProviderAvailable ErrorCode = "no_provider_available"

	// CodeAllCandidatesFailed means every usable candidate was attempted
	// and exhausted.
	CodeAllCandidatesFailed ErrorCode = "all_candidates_failed"

	// CodeCanceled means the caller canceled the request mid-chain.
	CodeCanceled ErrorCode = "canceled"
)

// GatewayError is the terminal error for a call. It is distinct from any
// single provider's error: the aggregate carries type "unknown" and no single
// provider, only the attempted-chain context.
type GatewayError struct {
	Code         ErrorCode
	Type         providers.ErrorType
	Message      string
	FallbackPath []FallbackHop
	Cause        error
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements error unwrapping.
func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// NewInvalidRequestError creates a construction-time validation error.
func NewInvalidRequestError(message string) *GatewayError {
	return &GatewayError{
		Code:    CodeInvalidRequest,
		Type:    providers.ErrorBadRequest,
		Message: message,
	}
}

// AsGatewayError extracts a *GatewayError from an error chain.
func AsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
