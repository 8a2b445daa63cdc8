package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/matheusM9/distribuidores-render/distributors"
	"github.com/matheusM9/distribuidores-render/models"
)

// ListDistributors returns every record. A backing store failure degrades
// to an empty list so the page still renders.
func (h *Handler) ListDistributors(w http.ResponseWriter, r *http.Request) {
	records, err := h.Service.List(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("listing distributors degraded to empty set")
		records = []models.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}

// CreateDistributor registers a new distributor, one row per city.
func (h *Handler) CreateDistributor(w http.ResponseWriter, r *http.Request) {
	var in distributors.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	written, err := h.Service.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"records": written})
}

// UpdateDistributor replaces the rows of the named distributor.
func (h *Handler) UpdateDistributor(w http.ResponseWriter, r *http.Request) {
	oldName := mux.Vars(r)["name"]

	var in distributors.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	written, err := h.Service.Update(r.Context(), oldName, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"records": written})
}

// DeleteDistributor removes every row of the named distributor.
func (h *Handler) DeleteDistributor(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.Service.Delete(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
