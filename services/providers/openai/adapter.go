// Package openai implements the providers.Provider contract against the
// OpenAI chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/providers"
)

const (
	providerName   = "openai"
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 60 * time.Second
)

// Config holds the adapter settings.
type Config struct {
	APIKey  string
	BaseURL string
	// Timeout is the client-level ceiling used when a request carries none.
	Timeout time.Duration
}

// Adapter is the OpenAI provider adapter.
type Adapter struct {
	config     Config
	httpClient *http.Client
}

// New creates an OpenAI adapter.
func New(config Config) *Adapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	return &Adapter{
		config: config,
		// Per-attempt deadlines come from the request context; the client
		// timeout is only a backstop.
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// Name returns the provider identifier.
func (a *Adapter) Name() string {
	return providerName
}

// Complete performs a single chat completion attempt. Retries belong to the
// gateway, not the adapter.
func (a *Adapter) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	start := time.Now()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = a.config.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(buildWireRequest(req))
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadRequest, providerName, req.Model, "failed to encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorUnknown, providerName, req.Model, "failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewProviderError(providers.Classify(err), providerName, req.Model, "request failed", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewProviderError(providers.Classify(err), providerName, req.Model, "failed to read response", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, a.translateErrorResponse(req.Model, httpResp.StatusCode, respBody)
	}

	var wireResp wireResponse
	if err := json.Unmarshal(respBody, &wireResp); err != nil {
		return nil, providers.NewProviderError(providers.ErrorUnknown, providerName, req.Model, "failed to decode response", err)
	}
	if len(wireResp.Choices) == 0 {
		return nil, providers.NewProviderError(providers.ErrorUnknown, providerName, req.Model, "response contained no choices", nil)
	}

	return &providers.CompletionResponse{
		Content:          wireResp.Choices[0].Message.Content,
		Model:            wireResp.Model,
		PromptTokens:     wireResp.Usage.PromptTokens,
		CompletionTokens: wireResp.Usage.CompletionTokens,
		Latency:          time.Since(start),
	}, nil
}

// translateErrorResponse maps a non-200 response onto the error taxonomy.
func (a *Adapter) translateErrorResponse(model string, status int, body []byte) error {
	message := fmt.Sprintf("upstream returned %d", status)
	var wireErr wireErrorResponse
	if err := json.Unmarshal(body, &wireErr); err == nil && wireErr.Error.Message != "" {
		message = wireErr.Error.Message
	}

	return &providers.ProviderError{
		Type:       providers.ClassifyStatus(status),
		Provider:   providerName,
		Model:      model,
		Message:    message,
		StatusCode: status,
		Cause:      errors.New(message),
	}
}

// Wire types for the OpenAI chat completions endpoint.

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	User        string        `json:"user,omitempty"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      wireMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type wireErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func buildWireRequest(req *providers.CompletionRequest) *wireRequest {
	wire := &wireRequest{
		Model:    req.Model,
		Messages: make([]wireMessage, len(req.Messages)),
		User:     req.RequestID,
	}
	for i, msg := range req.Messages {
		wire.Messages[i] = wireMessage{Role: msg.Role, Content: msg.Content}
	}
	if req.MaxTokens > 0 {
		wire.MaxTokens = &req.MaxTokens
	}
	if req.Temperature > 0 {
		wire.Temperature = &req.Temperature
	}
	return wire
}
