// Package api exposes the rostering services over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/JiggerF/worship-ministry-app-sub000/internal/config"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/actor"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/services"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

const requestTimeout = 30 * time.Second

// Deps holds everything the HTTP layer needs. AuditLog may be nil when no
// datastore is configured.
type Deps struct {
	Config       *config.Config
	Logger       *zap.Logger
	Resolver     *actor.Resolver
	Periods      *services.PeriodManager
	Availability *services.AvailabilityService
	Setlist      *services.SetlistManager
	Roster       *services.RosterService
	AuditLog     db.AuditStore
}

type handler struct {
	Deps
}

// NewRouter assembles the chi router with middleware and every route
func NewRouter(deps Deps) http.Handler {
	h := &handler{Deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(resolveActor(deps.Resolver))
	r.Use(requestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(deps.Config))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/periods", func(r chi.Router) {
			r.Get("/", h.listPeriods)
			r.Post("/", h.createPeriod)
			r.Get("/{id}", h.getPeriod)
			r.Patch("/{id}", h.updatePeriod)
			r.Delete("/{id}", h.deletePeriod)
		})

		r.Get("/availability/{token}", h.getAvailability)
		r.Post("/availability/{token}", h.submitAvailability)

		r.Route("/setlist", func(r chi.Router) {
			r.Get("/", h.readSetlist)
			r.Post("/", h.upsertSlot)
			r.Delete("/", h.clearSetlist)
			r.Delete("/{id}", h.deleteSlot)
			r.Patch("/{date}/publish", h.publishSetlist)
			r.Patch("/{date}/revert", h.revertSetlist)
			r.Patch("/{date}/reorder", h.reorderSetlist)
		})

		r.Get("/roster/{date}", h.getRoster)
		r.Put("/roster/{date}", h.saveRoster)

		r.Get("/audit", h.listAudit)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})

	return r
}
