package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/actor"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/services"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

type rosterRequest struct {
	Assignments []services.AssignmentInput `json:"assignments" validate:"required"`
}

type rosterResponse struct {
	Date        string                `json:"date"`
	Assignments []db.RosterAssignment `json:"assignments"`
}

func (h *handler) getRoster(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	assignments, err := h.Roster.GetRoster(r.Context(), actor.FromContext(r.Context()), date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if assignments == nil {
		assignments = []db.RosterAssignment{}
	}
	writeJSON(w, http.StatusOK, rosterResponse{Date: date, Assignments: assignments})
}

func (h *handler) saveRoster(w http.ResponseWriter, r *http.Request) {
	var req rosterRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validateStruct(&req); err != nil {
		h.writeError(w, r, err)
		return
	}

	date := chi.URLParam(r, "date")
	saved, err := h.Roster.SaveRoster(r.Context(), actor.FromContext(r.Context()), date, req.Assignments)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rosterResponse{Date: date, Assignments: saved})
}
