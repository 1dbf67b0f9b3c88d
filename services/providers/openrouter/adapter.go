// Package openrouter implements the providers.Provider contract against the
// OpenRouter API. The wire format is OpenAI-compatible; OpenRouter adds
// optional attribution headers and routes to many underlying models.
package openrouter

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
	providerName   = "openrouter"
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultTimeout = 60 * time.Second
)

// Config holds the adapter settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration

	// Referer and AppTitle populate OpenRouter's attribution headers.
	Referer  string
	AppTitle string
}

// Adapter is the OpenRouter provider adapter.
type Adapter struct {
	config     Config
	httpClient *http.Client
}

// New creates an OpenRouter adapter.
func New(config Config) *Adapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	return &Adapter{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// Name returns the provider identifier.
func (a *Adapter) Name() string {
	return providerName
}

// Complete performs a single completion attempt against OpenRouter.
func (a *Adapter) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	start := time.Now()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = a.config.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload := chatPayload{
		Model:    req.Model,
		Messages: make([]chatMessage, len(req.Messages)),
	}
	for i, msg := range req.Messages {
		payload.Messages[i] = chatMessage{Role: msg.Role, Content: msg.Content}
	}
	if req.MaxTokens > 0 {
		payload.MaxTokens = &req.MaxTokens
	}
	if req.Temperature > 0 {
		payload.Temperature = &req.Temperature
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadRequest, providerName, req.Model, "failed to encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorUnknown, providerName, req.Model, "failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	if a.config.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", a.config.Referer)
	}
	if a.config.AppTitle != "" {
		httpReq.Header.Set("X-Title", a.config.AppTitle)
	}

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
		message := fmt.Sprintf("upstream returned %d", httpResp.StatusCode)
		var wireErr struct {
			Error struct {
				Message string `json:"message"`
				Code    int    `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(respBody, &wireErr); err == nil && wireErr.Error.Message != "" {
			message = wireErr.Error.Message
		}
		return nil, &providers.ProviderError{
			Type:       providers.ClassifyStatus(httpResp.StatusCode),
			Provider:   providerName,
			Model:      req.Model,
			Message:    message,
			StatusCode: httpResp.StatusCode,
			Cause:      errors.New(message),
		}
	}

	var wireResp chatResponse
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

type chatPayload struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}
