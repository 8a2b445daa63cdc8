package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/matheusM9/distribuidores-render/ibge"
)

// GetStates lists the states for the selection dropdowns. Feed failures
// degrade to an empty list.
func (h *Handler) GetStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.IBGE.States(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("states feed unavailable")
		states = []ibge.State{}
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, http.StatusOK, map[string]interface{}{"states": states})
}

// GetCities lists the municipalities of one state.
func (h *Handler) GetCities(w http.ResponseWriter, r *http.Request) {
	uf := strings.ToUpper(mux.Vars(r)["uf"])
	cities, err := h.IBGE.Cities(r.Context(), uf)
	if err != nil {
		log.Warn().Err(err).Str("uf", uf).Msg("cities feed unavailable")
		cities = []ibge.City{}
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, http.StatusOK, map[string]interface{}{"cities": cities})
}

// GetAllCities lists every "City - UF" option for the search box.
func (h *Handler) GetAllCities(w http.ResponseWriter, r *http.Request) {
	options, err := h.IBGE.AllCityOptions(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("city options feed unavailable")
		options = []string{}
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, http.StatusOK, map[string]interface{}{"cities": options})
}
