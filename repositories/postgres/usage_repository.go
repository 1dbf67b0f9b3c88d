package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/models"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/repositories"
)

// UsageRepository implements the repositories.UsageRepository interface
type UsageRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *DB, logger *zap.Logger) repositories.UsageRepository {
	return &UsageRepository{
		db:     db,
		logger: logger,
	}
}

const usageColumns = `id, request_id, task_type, priority, purpose, provider, model,
       outcome, prompt_tokens, completion_tokens, latency_ms, attempts,
       fallback_hops, created_at`

// Insert inserts a new usage record
func (r *UsageRepository) Insert(ctx context.Context, record *models.UsageRecord) error {
	query := `
		INSERT INTO usage_records (
			id, request_id, task_type, priority, purpose, provider, model,
			outcome, prompt_tokens, completion_tokens, latency_ms, attempts,
			fallback_hops, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.RequestID,
		record.TaskType,
		record.Priority,
		record.Purpose,
		record.Provider,
		record.Model,
		record.Outcome,
		record.PromptTokens,
		record.CompletionTokens,
		record.LatencyMs,
		record.Attempts,
		record.FallbackHops,
		record.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}

	r.logger.Debug("usage record inserted",
		zap.String("id", record.ID.String()),
		zap.String("request_id", record.RequestID),
		zap.String("outcome", string(record.Outcome)))
	return nil
}

// GetByRequestID retrieves the usage record for a request id
func (r *UsageRepository) GetByRequestID(ctx context.Context, requestID string) (*models.UsageRecord, error) {
	query := `
		SELECT ` + usageColumns + `
		FROM usage_records
		WHERE request_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	record := &models.UsageRecord{}
	err := r.db.QueryRowContext(ctx, query, requestID).Scan(
		&record.ID,
		&record.RequestID,
		&record.TaskType,
		&record.Priority,
		&record.Purpose,
		&record.Provider,
		&record.Model,
		&record.Outcome,
		&record.PromptTokens,
		&record.CompletionTokens,
		&record.LatencyMs,
		&record.Attempts,
		&record.FallbackHops,
		&record.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("usage record not found: %s", requestID)
		}
		return nil, fmt.Errorf("failed to get usage record: %w", err)
	}

	return record, nil
}

// Recent retrieves the newest usage records
func (r *UsageRepository) Recent(ctx context.Context, limit int) ([]*models.UsageRecord, error) {
	query := `
		SELECT ` + usageColumns + `
		FROM usage_records
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	defer rows.Close()

	var records []*models.UsageRecord
	for rows.Next() {
		record := &models.UsageRecord{}
		err := rows.Scan(
			&record.ID,
			&record.RequestID,
			&record.TaskType,
			&record.Priority,
			&record.Purpose,
			&record.Provider,
			&record.Model,
			&record.Outcome,
			&record.PromptTokens,
			&record.CompletionTokens,
			&record.LatencyMs,
			&record.Attempts,
			&record.FallbackHops,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage records: %w", err)
	}

	return records, nil
}

// Summarize aggregates usage records created at or after since
func (r *UsageRepository) Summarize(ctx context.Context, since time.Time) (*repositories.UsageSummary, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE outcome = $1),
			COUNT(*) FILTER (WHERE outcome != $1),
			COALESCE(SUM(prompt_tokens), 0),
			COALESCE(SUM(completion_tokens), 0),
			COALESCE(SUM(fallback_hops), 0)
		FROM usage_records
		WHERE created_at >= $2
	`

	summary := &repositories.UsageSummary{}
	err := r.db.QueryRowContext(ctx, query, models.UsageOutcomeSuccess, since).Scan(
		&summary.TotalCalls,
		&summary.SuccessfulCalls,
		&summary.FailedCalls,
		&summary.PromptTokens,
		&summary.CompletionTokens,
		&summary.FallbackHops,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize usage: %w", err)
	}

	return summary, nil
}
