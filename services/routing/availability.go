package routing

import "sync"

// Snapshot is a point-in-time, read-only view of provider availability.
// One snapshot is captured at the start of each gateway call so a single
// request sees a consistent view even if configuration changes mid-flight.
type Snapshot map[string]bool

// Available reports whether the provider was usable when the snapshot was
// taken. Providers absent from the snapshot are unavailable.
func (s Snapshot) Available(provider string) bool {
	return s[provider]
}

// AvailabilityRegistry answers "is provider P currently usable" from
// configuration (enabled flag, credential presence). Updates only affect
// calls that start after the update.
type AvailabilityRegistry struct {
	mu        sync.RWMutex
	available map[string]bool
}

// NewAvailabilityRegistry creates a registry seeded from configuration.
func NewAvailabilityRegistry(initial map[string]bool) *AvailabilityRegistry {
	available := make(map[string]bool, len(initial))
	for provider, ok := range initial {
		available[provider] = ok
	}
	return &AvailabilityRegistry{available: available}
}

// Set marks a provider available or unavailable.
func (r *AvailabilityRegistry) Set(provider string, available bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.available[provider] = available
}

// Snapshot returns a copy of the current availability map.
func (r *AvailabilityRegistry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(Snapshot, len(r.available))
	for provider, ok := range r.available {
		snapshot[provider] = ok
	}
	return snapshot
}
