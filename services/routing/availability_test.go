package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotIsIsolatedFromUpdates(t *testing.T) {
	registry := NewAvailabilityRegistry(map[string]bool{
		"openai":     true,
		"openrouter": false,
	})

	snapshot := registry.Snapshot()
	assert.True(t, snapshot.Available("openai"))
	assert.False(t, snapshot.Available("openrouter"))

	// Updates after the snapshot was taken must not leak into it.
	registry.Set("openai", false)
	registry.Set("openrouter", true)

	assert.True(t, snapshot.Available("openai"))
	assert.False(t, snapshot.Available("openrouter"))

	fresh := registry.Snapshot()
	assert.False(t, fresh.Available("openai"))
	assert.True(t, fresh.Available("openrouter"))
}

func TestSnapshotUnknownProviderIsUnavailable(t *testing.T) {
	registry := NewAvailabilityRegistry(nil)
	assert.False(t, registry.Snapshot().Available("anthropic"))
}
