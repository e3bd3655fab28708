package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/actor"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/services"
)

func (h *handler) listPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Periods.ListPeriods(r.Context(), actor.FromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

func (h *handler) createPeriod(w http.ResponseWriter, r *http.Request) {
	var in services.CreatePeriodInput
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	period, err := h.Periods.CreatePeriod(r.Context(), actor.FromContext(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, period)
}

func (h *handler) getPeriod(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Periods.GetPeriod(r.Context(), actor.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *handler) updatePeriod(w http.ResponseWriter, r *http.Request) {
	var in services.UpdatePeriodInput
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.Periods.UpdatePeriod(r.Context(), actor.FromContext(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if result.Closed {
		writeJSON(w, http.StatusOK, map[string]bool{"closed": true})
		return
	}
	writeJSON(w, http.StatusOK, result.Period)
}

func (h *handler) deletePeriod(w http.ResponseWriter, r *http.Request) {
	if err := h.Periods.DeletePeriod(r.Context(), actor.FromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
