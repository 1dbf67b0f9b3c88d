package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/repositories"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/utils"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
	defaultWindow      = 24 * time.Hour
)

// UsageHandler serves usage accounting queries
type UsageHandler struct {
	usageRepo repositories.UsageRepository
	logger    *zap.Logger
}

// NewUsageHandler creates a new UsageHandler
func NewUsageHandler(usageRepo repositories.UsageRepository, logger *zap.Logger) *UsageHandler {
	return &UsageHandler{
		usageRepo: usageRepo,
		logger:    logger,
	}
}

// HandleSummary handles GET /api/v1/usage/summary?window=24h
func (h *UsageHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	window := defaultWindow
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			_ = utils.WriteBadRequest(w, "Invalid window duration", nil)
			return
		}
		window = parsed
	}

	summary, err := h.usageRepo.Summarize(r.Context(), time.Now().Add(-window))
	if err != nil {
		h.logger.Error("usage summary query failed", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to summarize usage")
		return
	}

	_ = utils.WriteOK(w, summary)
}

// HandleRecent handles GET /api/v1/usage/recent?limit=50
func (h *UsageHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxRecentLimit {
			_ = utils.WriteBadRequest(w, "Invalid limit", nil)
			return
		}
		limit = parsed
	}

	records, err := h.usageRepo.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("recent usage query failed", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to load usage records")
		return
	}

	_ = utils.WriteOK(w, records)
}
