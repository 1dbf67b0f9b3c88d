package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageOutcome is the terminal state of a gateway call.
type UsageOutcome string

const (
	UsageOutcomeSuccess             UsageOutcome = "success"
	UsageOutcomeAllFailed           UsageOutcome = "all_candidates_failed"
	UsageOutcomeNoProviderAvailable UsageOutcome = "no_provider_available"
	UsageOutcomeCanceled            UsageOutcome = "canceled"
)

// UsageRecord is one row per finished gateway call. It carries token and
// latency accounting for downstream SQL aggregation; request and response
// content is deliberately never persisted.
type UsageRecord struct {
	ID               uuid.UUID    `json:"id"`
	RequestID        string       `json:"request_id"`
	TaskType         string       `json:"task_type"`
	Priority         string       `json:"priority"`
	Purpose          string       `json:"purpose"`
	Provider         string       `json:"provider"`
	Model            string       `json:"model"`
	Outcome          UsageOutcome `json:"outcome"`
	PromptTokens     int          `json:"prompt_tokens"`
	CompletionTokens int          `json:"completion_tokens"`
	LatencyMs        int64        `json:"latency_ms"`
	Attempts         int          `json:"attempts"`
	FallbackHops     int          `json:"fallback_hops"`
	CreatedAt        time.Time    `json:"created_at"`
}

// NewUsageRecord creates a usage record with a fresh id and timestamp.
func NewUsageRecord(requestID string, outcome UsageOutcome) *UsageRecord {
	return &UsageRecord{
		ID:        uuid.New(),
		RequestID: requestID,
		Outcome:   outcome,
		CreatedAt: time.Now().UTC(),
	}
}
