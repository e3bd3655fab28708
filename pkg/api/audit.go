package api

import (
	"net/http"
	"strconv"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/actor"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/services"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

type auditQuery struct {
	Limit int `json:"limit" validate:"omitempty,min=1,max=500"`
}

func (h *handler) listAudit(w http.ResponseWriter, r *http.Request) {
	var q auditQuery
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be a number"})
			return
		}
		q.Limit = n
		if err := validateStruct(&q); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	entries, err := services.ListAudit(r.Context(), h.AuditLog, actor.FromContext(r.Context()), q.Limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []db.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
