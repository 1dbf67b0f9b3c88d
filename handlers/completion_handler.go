package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/gateway"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/guard"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/providers"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/routing"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/utils"
)

// CompletionRequest represents the completion request body. Either task_type
// (routed) or provider+model (pinned) selects the backend.
type CompletionRequest struct {
	TaskType    string        `json:"task_type,omitempty"`
	Priority    string        `json:"priority,omitempty"`
	Purpose     string        `json:"purpose,omitempty"`
	Provider    string        `json:"provider,omitempty"`
	Model       string        `json:"model,omitempty"`
	Messages    []ChatMessage `json:"messages" validate:"required,min=1,dive"`
	MaxTokens   int           `json:"max_tokens,omitempty" validate:"omitempty,gt=0"`
	Temperature *float64      `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	TimeoutMs   int           `json:"timeout_ms,omitempty" validate:"omitempty,gt=0"`
	MaxRetries  *int          `json:"max_retries,omitempty" validate:"omitempty,gte=0"`
}

// ChatMessage represents a single chat message
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

// CompletionResponse represents a successful completion
type CompletionResponse struct {
	RequestID    string                `json:"request_id"`
	Provider     string                `json:"provider"`
	Model        string                `json:"model"`
	Content      string                `json:"content"`
	Usage        CompletionUsage       `json:"usage"`
	Attempts     int                   `json:"attempts"`
	FallbackPath []gateway.FallbackHop `json:"fallback_path"`
	LatencyMs    int64                 `json:"latency_ms"`
}

// CompletionUsage represents token usage information
type CompletionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Gateway defines the interface for the fallback orchestrator
type Gateway interface {
	CallWithFallback(ctx context.Context, req *gateway.Request) (*gateway.Response, error)
}

// CompletionHandler handles completion HTTP requests
type CompletionHandler struct {
	gateway        Gateway
	defaultTimeout time.Duration
	screen         *guard.Screen
	logger         *zap.Logger
}

// NewCompletionHandler creates a new CompletionHandler. A nil screen disables
// content screening.
func NewCompletionHandler(gw Gateway, defaultTimeout time.Duration, screen *guard.Screen, logger *zap.Logger) *CompletionHandler {
	return &CompletionHandler{
		gateway:        gw,
		defaultTimeout: defaultTimeout,
		screen:         screen,
		logger:         logger,
	}
}

// HandleCompletion handles POST /api/v1/completions
func (h *CompletionHandler) HandleCompletion(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.New().String()
	}
	w.Header().Set("X-Request-Id", requestID)

	var body CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&body); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	if h.screen.Enabled() {
		contents := make([]string, 0, len(body.Messages))
		for _, m := range body.Messages {
			contents = append(contents, m.Content)
		}
		if findings := h.screen.InspectAll(contents); len(findings) > 0 {
			h.logger.Warn("request blocked by content screen",
				zap.String("request_id", requestID),
				zap.Any("findings", findings))
			_ = utils.WriteBadRequest(w, "Message content blocked", map[string]interface{}{
				"findings": findings,
			})
			return
		}
	}

	req := h.buildGatewayRequest(requestID, &body)
	resp, err := h.gateway.CallWithFallback(r.Context(), req)
	if err != nil {
		HandleGatewayError(w, err, h.logger)
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, CompletionResponse{
		RequestID: resp.RequestID,
		Provider:  resp.Provider,
		Model:     resp.Model,
		Content:   resp.Content,
		Usage: CompletionUsage{
			PromptTokens:     resp.InputTokens,
			CompletionTokens: resp.OutputTokens,
			TotalTokens:      resp.InputTokens + resp.OutputTokens,
		},
		Attempts:     resp.Attempts,
		FallbackPath: resp.FallbackPath,
		LatencyMs:    resp.LatencyMs,
	})
}

// buildGatewayRequest translates the HTTP body into a gateway request.
func (h *CompletionHandler) buildGatewayRequest(requestID string, body *CompletionRequest) *gateway.Request {
	timeout := h.defaultTimeout
	if body.TimeoutMs > 0 {
		timeout = time.Duration(body.TimeoutMs) * time.Millisecond
	}

	var temperature float64
	if body.Temperature != nil {
		temperature = *body.Temperature
	}

	messages := make([]providers.Message, 0, len(body.Messages))
	for _, m := range body.Messages {
		messages = append(messages, providers.Message{Role: m.Role, Content: m.Content})
	}

	// Callers that neither route nor pin get the catch-all task type.
	taskType := body.TaskType
	if taskType == "" && body.Provider == "" && body.Model == "" {
		taskType = routing.DefaultTaskType
	}

	return &gateway.Request{
		RequestID:      requestID,
		TaskType:       taskType,
		Priority:       body.Priority,
		Purpose:        body.Purpose,
		PinnedProvider: body.Provider,
		PinnedModel:    body.Model,
		Messages:       messages,
		MaxTokens:      body.MaxTokens,
		Temperature:    temperature,
		Timeout:        timeout,
		MaxRetries:     body.MaxRetries,
	}
}
