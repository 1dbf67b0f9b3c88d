package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/providers"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/routing"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/utils"
)

// ProviderStatus describes one registered backend.
type ProviderStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// ProviderHandler handles provider listing requests
type ProviderHandler struct {
	registry     *providers.Registry
	availability *routing.AvailabilityRegistry
	logger       *zap.Logger
}

// NewProviderHandler creates a new ProviderHandler
func NewProviderHandler(registry *providers.Registry, availability *routing.AvailabilityRegistry, logger *zap.Logger) *ProviderHandler {
	return &ProviderHandler{
		registry:     registry,
		availability: availability,
		logger:       logger,
	}
}

// HandleListProviders handles GET /api/v1/providers
func (h *ProviderHandler) HandleListProviders(w http.ResponseWriter, r *http.Request) {
	snapshot := h.availability.Snapshot()

	statuses := make([]ProviderStatus, 0, h.registry.Count())
	for _, name := range h.registry.Names() {
		statuses = append(statuses, ProviderStatus{
			Name:      name,
			Available: snapshot.Available(name),
		})
	}

	_ = utils.WriteOK(w, statuses)
}
