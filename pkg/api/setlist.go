package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/actor"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/services"
)

type reorderRequest struct {
	Order []string `json:"order" validate:"required,dive,required"`
}

func (h *handler) readSetlist(w http.ResponseWriter, r *http.Request) {
	slots, err := h.Setlist.ReadSetlist(r.Context(), actor.FromContext(r.Context()), r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (h *handler) upsertSlot(w http.ResponseWriter, r *http.Request) {
	var in services.UpsertSlotInput
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	slot, err := h.Setlist.UpsertSlot(r.Context(), actor.FromContext(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, slot)
}

func (h *handler) deleteSlot(w http.ResponseWriter, r *http.Request) {
	if err := h.Setlist.DeleteSlot(r.Context(), actor.FromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) clearSetlist(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Setlist.ClearSetlist(r.Context(), actor.FromContext(r.Context()), r.URL.Query().Get("date")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) publishSetlist(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := h.Setlist.PublishSetlist(r.Context(), actor.FromContext(r.Context()), date); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"published": true, "date": date})
}

func (h *handler) revertSetlist(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := h.Setlist.RevertSetlist(r.Context(), actor.FromContext(r.Context()), date); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reverted": true, "date": date})
}

func (h *handler) reorderSetlist(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validateStruct(&req); err != nil {
		h.writeError(w, r, err)
		return
	}

	slots, err := h.Setlist.ReorderSetlist(r.Context(), actor.FromContext(r.Context()), chi.URLParam(r, "date"), req.Order)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}
