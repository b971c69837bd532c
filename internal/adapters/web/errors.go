package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"partstock/internal/core"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondCoreError maps the engine's typed failures to HTTP statuses. Stock
// conflicts are 409 so callers can distinguish "retry with a different batch"
// from bad requests; anything unrecognized is a persistence failure.
// Conflicts and not-founds are normal operation and logged at debug;
// unrecognized errors are logged at error before being masked.
func (h *Handler) respondCoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsConflict(err) || core.IsNotFound(err) || errors.Is(err, core.ErrInvalidInput):
		h.log.Debug("request rejected",
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err))
	default:
		h.log.Error("request failed",
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err))
	}

	switch {
	case errors.Is(err, core.ErrInsufficientStock):
		writeError(w, r, err.Error(), "INSUFFICIENT_STOCK", http.StatusConflict)
	case errors.Is(err, core.ErrReversalConflict):
		writeError(w, r, err.Error(), "REVERSAL_CONFLICT", http.StatusConflict)
	case errors.Is(err, core.ErrAlreadyCancelled):
		writeError(w, r, err.Error(), "ALREADY_CANCELLED", http.StatusConflict)
	case errors.Is(err, core.ErrBatchNotFound):
		writeError(w, r, err.Error(), "BATCH_NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrDocumentNotFound):
		writeError(w, r, err.Error(), "DOCUMENT_NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrInvalidInput):
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
	default:
		writeError(w, r, "internal server error", "PERSISTENCE_FAILURE", http.StatusInternalServerError)
	}
}
