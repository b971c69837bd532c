package web

import (
	"encoding/json"
	"net/http"
)

// createPurchase handles POST /api/purchases.
func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	var req createPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.respondCoreError(w, r, err)
		return
	}

	purchase, err := h.purchases.Create(r.Context(), input)
	if err != nil {
		h.respondCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, purchase)
}

// cancelPurchase handles POST /api/purchases/{id}/cancel.
func (h *Handler) cancelPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid purchase id", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	purchase, err := h.purchases.Cancel(r.Context(), id)
	if err != nil {
		h.respondCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, purchase)
}

// getPurchase handles GET /api/purchases/{id}.
func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid purchase id", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	purchase, err := h.purchases.Get(r.Context(), id)
	if err != nil {
		h.respondCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, purchase)
}

// listPurchases handles GET /api/purchases?page=&size=.
func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.purchases.List(r.Context(), pageParams(r))
	if err != nil {
		h.respondCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, purchases)
}
