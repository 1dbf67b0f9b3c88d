package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/providers"
)

func testRequest() *providers.CompletionRequest {
	return &providers.CompletionRequest{
		RequestID:   "req-123",
		Model:       "gpt-4o-mini",
		Messages:    []providers.Message{{Role: "user", Content: "hello"}},
		MaxTokens:   64,
		Temperature: 0.2,
		Timeout:     5 * time.Second,
	}
}

func TestCompleteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var wire wireRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&wire))
		assert.Equal(t, "gpt-4o-mini", wire.Model)
		assert.Equal(t, "req-123", wire.User)
		require.NotNil(t, wire.MaxTokens)
		assert.Equal(t, 64, *wire.MaxTokens)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-4o-mini",
			"choices": [{"message": {"role": "assistant", "content": "hi there"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`))
	}))
	defer server.Close()

	adapter := New(Config{APIKey: "test-key", BaseURL: server.URL})

	resp, err := adapter.Complete(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Content)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
	assert.Equal(t, 12, resp.PromptTokens)
	assert.Equal(t, 3, resp.CompletionTokens)
	assert.Equal(t, 15, resp.TotalTokens())
	assert.Greater(t, resp.Latency, time.Duration(0))
}

func TestCompleteTranslatesStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected providers.ErrorType
	}{
		{
			name:     "429 becomes rate_limited",
			status:   http.StatusTooManyRequests,
			body:     `{"error": {"message": "rate limit reached", "type": "rate_limit_error"}}`,
			expected: providers.ErrorRateLimited,
		},
		{
			name:     "400 becomes bad_request",
			status:   http.StatusBadRequest,
			body:     `{"error": {"message": "invalid model", "type": "invalid_request_error"}}`,
			expected: providers.ErrorBadRequest,
		},
		{
			name:     "500 becomes unknown",
			status:   http.StatusInternalServerError,
			body:     `{"error": {"message": "server error"}}`,
			expected: providers.ErrorUnknown,
		},
		{
			name:     "unparseable body still classifies",
			status:   http.StatusBadGateway,
			body:     "<html>bad gateway</html>",
			expected: providers.ErrorUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			adapter := New(Config{APIKey: "test-key", BaseURL: server.URL})

			_, err := adapter.Complete(context.Background(), testRequest())
			require.Error(t, err)

			pe, ok := providers.AsProviderError(err)
			require.True(t, ok)
			assert.Equal(t, tt.expected, pe.Type)
			assert.Equal(t, "openai", pe.Provider)
			assert.Equal(t, tt.status, pe.StatusCode)
		})
	}
}

func TestCompleteHonorsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	adapter := New(Config{APIKey: "test-key", BaseURL: server.URL})

	req := testRequest()
	req.Timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := adapter.Complete(context.Background(), req)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)

	pe, ok := providers.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, providers.ErrorTimeout, pe.Type)
}

func TestCompleteRejectsEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "chatcmpl-1", "model": "gpt-4o-mini", "choices": []}`))
	}))
	defer server.Close()

	adapter := New(Config{APIKey: "test-key", BaseURL: server.URL})

	_, err := adapter.Complete(context.Background(), testRequest())
	require.Error(t, err)

	pe, ok := providers.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, providers.ErrorUnknown, pe.Type)
}
