// Package repositories defines the persistence interfaces consumed by the
// service layer. Implementations live in subpackages (postgres).
package repositories

import (
	"context"
	"time"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/models"
)

// UsageSummary aggregates usage records over a window.
type UsageSummary struct {
	TotalCalls       int64 `json:"total_calls"`
	SuccessfulCalls  int64 `json:"successful_calls"`
	FailedCalls      int64 `json:"failed_calls"`
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	FallbackHops     int64 `json:"fallback_hops"`
}

// UsageRepository persists per-call usage records.
type UsageRepository interface {
	// Insert writes one usage record. Designed for async insert patterns:
	// callers treat failures as log-and-drop.
	Insert(ctx context.Context, record *models.UsageRecord) error

	// GetByRequestID returns the record for a request id, if any.
	GetByRequestID(ctx context.Context, requestID string) (*models.UsageRecord, error)

	// Recent returns the newest records, newest first.
	Recent(ctx context.Context, limit int) ([]*models.UsageRecord, error)

	// Summarize aggregates records created at or after since.
	Summarize(ctx context.Context, since time.Time) (*UsageSummary, error)
}
