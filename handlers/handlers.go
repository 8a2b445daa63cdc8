// Package handlers exposes the HTTP API: login, distributor CRUD, the map
// view and the locality option feeds.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/matheusM9/distribuidores-render/auth"
	"github.com/matheusM9/distribuidores-render/distributors"
	"github.com/matheusM9/distribuidores-render/ibge"
	"github.com/matheusM9/distribuidores-render/models"
)

// Handler bundles the collaborators the HTTP layer needs.
type Handler struct {
	Service  *distributors.Service
	IBGE     *ibge.Client
	Users    *auth.UserStore
	Sessions *auth.SessionManager
}

// Register mounts all routes on the API subrouter. Mutating routes go
// through the editor gate.
func (h *Handler) Register(api *mux.Router) {
	api.HandleFunc("/login", h.Login).Methods("POST")
	api.HandleFunc("/logout", h.Logout).Methods("POST")
	api.HandleFunc("/session", h.Session).Methods("GET")

	api.HandleFunc("/distributors", h.ListDistributors).Methods("GET")
	api.HandleFunc("/map", h.MapView).Methods("GET")

	api.HandleFunc("/states", h.GetStates).Methods("GET")
	api.HandleFunc("/states/{uf}/cities", h.GetCities).Methods("GET")
	api.HandleFunc("/cities", h.GetAllCities).Methods("GET")

	edit := api.NewRoute().Subrouter()
	edit.Use(auth.RequireEditor)
	edit.HandleFunc("/distributors", h.CreateDistributor).Methods("POST")
	edit.HandleFunc("/distributors/{name}", h.UpdateDistributor).Methods("PUT")
	edit.HandleFunc("/distributors/{name}", h.DeleteDistributor).Methods("DELETE")
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("encoding response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the domain error kinds to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var (
		validation *models.ValidationError
		duplicate  *models.DuplicateKeyError
		conflict   *models.ConflictError
		comm       *models.CommunicationError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validation.Error()})
	case errors.As(err, &duplicate):
		writeJSON(w, http.StatusConflict, errorResponse{Error: duplicate.Error()})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: conflict.Error()})
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &comm):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: comm.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}
