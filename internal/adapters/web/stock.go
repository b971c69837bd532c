package web

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// listItemBatches handles GET /api/items/{id}/batches — the "available
// batches" query behind UI batch pickers. Batches come back oldest first so
// the picker can default to FIFO.
func (h *Handler) listItemBatches(w http.ResponseWriter, r *http.Request) {
	itemID, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid item id", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	batches, err := h.ledger.ListBatches(r.Context(), itemID)
	if err != nil {
		h.respondCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batches)
}

// createAdjustment handles POST /api/adjustments. The acting user comes from
// the X-Actor header, set by the authentication layer in front of this
// service.
func (h *Handler) createAdjustment(w http.ResponseWriter, r *http.Request) {
	actor := r.Header.Get("X-Actor")
	if actor == "" {
		writeError(w, r, "missing X-Actor header", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	var req adjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	input, err := req.toInput(actor)
	if err != nil {
		h.respondCoreError(w, r, err)
		return
	}

	adjustment, err := h.adjustments.Adjust(r.Context(), input)
	if err != nil {
		h.respondCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, adjustment)
}

// listAdjustments handles GET /api/adjustments?item_id=&page=&size=.
func (h *Handler) listAdjustments(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.Atoi(r.URL.Query().Get("item_id"))
	if err != nil || itemID < 1 {
		writeError(w, r, "item_id query parameter is required", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	adjustments, err := h.adjustments.ListAdjustments(r.Context(), itemID, pageParams(r))
	if err != nil {
		h.respondCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adjustments)
}
