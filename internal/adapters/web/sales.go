package web

import (
	"encoding/json"
	"net/http"
)

// createSale handles POST /api/sales.
func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
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

	sale, err := h.sales.Create(r.Context(), input)
	if err != nil {
		h.respondCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sale)
}

// cancelSale handles POST /api/sales/{id}/cancel.
func (h *Handler) cancelSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid sale id", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	sale, err := h.sales.Cancel(r.Context(), id)
	if err != nil {
		h.respondCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

// getSale handles GET /api/sales/{id}.
func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid sale id", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	sale, err := h.sales.Get(r.Context(), id)
	if err != nil {
		h.respondCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

// listSales handles GET /api/sales?page=&size=.
func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.sales.List(r.Context(), pageParams(r))
	if err != nil {
		h.respondCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}
