package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/providers"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/routing"
)

type namedProvider struct {
	name string
}

func (p *namedProvider) Name() string { return p.name }

func (p *namedProvider) Complete(context.Context, *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	return &providers.CompletionResponse{}, nil
}

func TestHandleListProviders(t *testing.T) {
	registry := providers.NewRegistry()
	require.NoError(t, registry.Register(&namedProvider{name: "openai"}))
	require.NoError(t, registry.Register(&namedProvider{name: "openrouter"}))

	availability := routing.NewAvailabilityRegistry(map[string]bool{
		"openai":     false,
		"openrouter": true,
	})

	handler := NewProviderHandler(registry, availability, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/providers", nil)
	w := httptest.NewRecorder()
	handler.HandleListProviders(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []ProviderStatus `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Data, 2)

	// Names() is sorted.
	assert.Equal(t, "openai", resp.Data[0].Name)
	assert.False(t, resp.Data[0].Available)
	assert.Equal(t, "openrouter", resp.Data[1].Name)
	assert.True(t, resp.Data[1].Available)
}

func newReloadableTable(t *testing.T) *routing.Table {
	t.Helper()
	table, err := routing.NewTable(map[string]map[string][]routing.Candidate{
		"general": {
			"balanced": {{Provider: "openai", Model: "gpt-4o-mini"}},
		},
	})
	require.NoError(t, err)
	return table
}

func TestHandleListTaskTypes(t *testing.T) {
	handler := NewRoutingHandler(newReloadableTable(t), "unused.yaml", zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/routing", nil)
	w := httptest.NewRecorder()
	handler.HandleListTaskTypes(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "general")
}

func TestHandleReloadMissingFileKeepsTable(t *testing.T) {
	table := newReloadableTable(t)
	handler := NewRoutingHandler(table, "does/not/exist.yaml", zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/routing/reload", nil)
	w := httptest.NewRecorder()
	handler.HandleReload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	// The previous table still resolves.
	assert.Len(t, table.Resolve("general", "balanced"), 1)
}

func TestHandleReloadSuccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.yaml")
	yaml := []byte(`tasks:
  general:
    balanced:
      - provider: openrouter
        model: meta-llama/llama-3-70b
  summarize:
    fast:
      - provider: openai
        model: gpt-4o-mini
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o644))

	table := newReloadableTable(t)
	handler := NewRoutingHandler(table, path, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/routing/reload", nil)
	w := httptest.NewRecorder()
	handler.HandleReload(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "summarize")

	chain := table.Resolve("general", "balanced")
	require.Len(t, chain, 1)
	assert.Equal(t, "openrouter", chain[0].Provider)
}
