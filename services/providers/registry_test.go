package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider is a minimal Provider for registry tests.
type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	return &CompletionResponse{Content: "ok", Model: req.Model}, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(&stubProvider{name: "openai"}))
	require.NoError(t, r.Register(&stubProvider{name: "openrouter"}))

	p, err := r.Get("openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	_, err = r.Get("anthropic")
	assert.ErrorIs(t, err, ErrProviderNotFound)

	assert.Equal(t, 2, r.Count())
	assert.Equal(t, []string{"openai", "openrouter"}, r.Names())
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(&stubProvider{name: "openai"}))
	assert.ErrorIs(t, r.Register(&stubProvider{name: "openai"}), ErrProviderAlreadyRegistered)
}

func TestRegistryRejectsInvalidProviders(t *testing.T) {
	r := NewRegistry()

	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(&stubProvider{name: ""}))
}
