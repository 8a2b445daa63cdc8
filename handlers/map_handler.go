package handlers

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/matheusM9/distribuidores-render/filter"
)

// MapView renders the map data: filtered records with coordinates
// reconciled, plus the derived viewport. Query parameters:
//
//	state=UF                      narrow to one state
//	distributors=a,b              narrow to selected distributors
//	city=City - UF                direct city search (short-circuits state)
func (h *Handler) MapView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := filter.Options{
		State:     strings.ToUpper(strings.TrimSpace(q.Get("state"))),
		CityQuery: strings.TrimSpace(q.Get("city")),
	}
	if raw := strings.TrimSpace(q.Get("distributors")); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				opts.Distributors = append(opts.Distributors, name)
			}
		}
	}

	view, err := h.Service.View(r.Context(), opts)
	if err != nil {
		// Degraded view over the fallback centroid, still renderable.
		log.Warn().Err(err).Msg("map view degraded")
	}
	writeJSON(w, http.StatusOK, view)
}
