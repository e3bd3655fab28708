package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/services"
)

// getAvailability is authorised by the personal token in the path, not the session
func (h *handler) getAvailability(w http.ResponseWriter, r *http.Request) {
	view, err := h.Availability.GetAvailability(r.Context(), chi.URLParam(r, "token"), r.URL.Query().Get("targetMonth"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handler) submitAvailability(w http.ResponseWriter, r *http.Request) {
	var in services.SubmitAvailabilityInput
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	err := h.Availability.SubmitAvailability(r.Context(), chi.URLParam(r, "token"), r.URL.Query().Get("targetMonth"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
