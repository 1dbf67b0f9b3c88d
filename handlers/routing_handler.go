package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/routing"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/utils"
)

// RoutingHandler handles routing table inspection and reload
type RoutingHandler struct {
	table     *routing.Table
	tablePath string
	logger    *zap.Logger
}

// NewRoutingHandler creates a new RoutingHandler
func NewRoutingHandler(table *routing.Table, tablePath string, logger *zap.Logger) *RoutingHandler {
	return &RoutingHandler{
		table:     table,
		tablePath: tablePath,
		logger:    logger,
	}
}

// HandleListTaskTypes handles GET /api/v1/routing
func (h *RoutingHandler) HandleListTaskTypes(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, map[string]interface{}{
		"task_types": h.table.TaskTypes(),
	})
}

// HandleReload handles POST /api/v1/routing/reload. The swap is atomic: on
// parse or validation failure the previous table stays in effect.
func (h *RoutingHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.table.Reload(h.tablePath); err != nil {
		h.logger.Error("routing table reload failed",
			zap.String("path", h.tablePath),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Routing table reload failed: previous table kept", map[string]interface{}{
			"reason": err.Error(),
		})
		return
	}

	h.logger.Info("routing table reloaded",
		zap.String("path", h.tablePath),
		zap.Strings("task_types", h.table.TaskTypes()))
	_ = utils.WriteOK(w, map[string]interface{}{
		"task_types": h.table.TaskTypes(),
	})
}
