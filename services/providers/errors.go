package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorType is the closed classification every backend failure is mapped
// into before it reaches the gateway. The gateway's retry decision depends
// only on this value.
type ErrorType string

const (
	// ErrorTimeout means no response arrived within the attempt deadline.
	ErrorTimeout ErrorType = "timeout"

	// ErrorRateLimited means the backend signaled throttling (HTTP 429).
	ErrorRateLimited ErrorType = "rate_limited"

	// ErrorBadRequest means the backend rejected the request as malformed
	// or invalid. Retrying the same request cannot succeed.
	ErrorBadRequest ErrorType = "bad_request"

	// ErrorUnknown covers everything else. Treated as non-retriable so a
	// real defect is surfaced instead of masked by retries.
	ErrorUnknown ErrorType = "unknown"
)

// Transient reports whether an error of this type is worth retrying against
// the same candidate.
func (t ErrorType) Transient() bool {
	return t == ErrorTimeout || t == ErrorRateLimited
}

// ProviderError is the only error shape adapters return. It attaches the
// provider and model so fallback diagnostics can name the failing candidate.
type ProviderError struct {
	Type       ErrorType
	Provider   string
	Model      string
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s/%s: %s: %s (%v)", e.Provider, e.Model, e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s/%s: %s: %s", e.Provider, e.Model, e.Type, e.Message)
}

// Unwrap implements error unwrapping.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a classified provider error.
func NewProviderError(errType ErrorType, provider, model, message string, cause error) *ProviderError {
	return &ProviderError{
		Type:     errType,
		Provider: provider,
		Model:    model,
		Message:  message,
		Cause:    cause,
	}
}

// AsProviderError extracts a *ProviderError from an error chain.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// Classify maps an arbitrary error onto the taxonomy. Already-classified
// errors keep their type; anything unrecognized is unknown.
func Classify(err error) ErrorType {
	if pe, ok := AsProviderError(err); ok {
		return pe.Type
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTimeout
	}
	return ErrorUnknown
}

// ClassifyStatus maps an HTTP status code onto the taxonomy. Connection-level
// failures never reach here; adapters classify those via Classify.
func ClassifyStatus(status int) ErrorType {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorRateLimited
	case status == http.StatusRequestTimeout:
		return ErrorTimeout
	case status == http.StatusBadRequest,
		status == http.StatusNotFound,
		status == http.StatusRequestEntityTooLarge,
		status == http.StatusUnprocessableEntity:
		return ErrorBadRequest
	default:
		// 401/403 and all 5xx land here: not retriable against the same
		// candidate, but the next candidate may still succeed.
		return ErrorUnknown
	}
}
