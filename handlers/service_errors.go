package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/services/gateway"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/utils"
)

// HandleGatewayError maps gateway terminal errors to HTTP responses.
func HandleGatewayError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	ge, ok := gateway.AsGatewayError(err)
	if !ok {
		logger.Error("unexpected gateway error", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "An unexpected error occurred")
		return
	}

	details := map[string]interface{}{}
	if len(ge.FallbackPath) > 0 {
		details["fallback_path"] = ge.FallbackPath
	}
	if len(details) == 0 {
		details = nil
	}

	switch ge.Code {
	case gateway.CodeInvalidRequest:
		_ = utils.WriteBadRequest(w, ge.Message, details)

	case gateway.CodeNoProviderAvailable:
		// Nothing was attempted: a configuration problem, not a backend one.
		_ = utils.WriteError(w, http.StatusServiceUnavailable, string(ge.Code), ge.Message, details)

	case gateway.CodeAllCandidatesFailed:
		_ = utils.WriteError(w, http.StatusBadGateway, string(ge.Code), ge.Message, details)

	case gateway.CodeCanceled:
		// 499 in nginx parlance; the closest standard status is 408.
		_ = utils.WriteError(w, http.StatusRequestTimeout, string(ge.Code), ge.Message, details)

	default:
		logger.Error("unhandled gateway error code",
			zap.String("code", string(ge.Code)),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{})
		for k, v := range fields {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
