package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/api"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/clock"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/actor"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/audit"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/services"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the roster HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(app.Ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			handler, recorder := buildRouter(app)
			server := &http.Server{
				Addr:              app.Cfg.ListenAddr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info("Listening", zap.String("addr", server.Addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
			case <-ctx.Done():
				app.Logger.Info("Received shutdown signal")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown error: %w", err)
			}

			recorder.Wait()
			app.Logger.Info("Shutdown complete")
			return nil
		},
	}
}

// buildRouter wires services over the configured datastore. Without one,
// every store stays a nil interface so operations report the datastore as
// unconfigured.
func buildRouter(app *AppContext) (http.Handler, *audit.Recorder) {
	cfg := app.Cfg
	c := clock.Real(cfg.Location())

	var (
		members      actor.MemberLookup
		periodStore  services.PeriodManagerStore
		availStore   services.AvailabilityStore
		setlistStore db.SetlistStore
		rosterStore  db.RosterStore
		auditStore   db.AuditStore
	)
	if app.Database != nil {
		members = app.Database
		periodStore = app.Database
		availStore = app.Database
		setlistStore = app.Database
		rosterStore = app.Database
		auditStore = app.Database
	}

	recorder := audit.NewRecorder(auditStore, c, app.Logger)
	roster := services.NewRosterService(rosterStore, recorder, app.Logger)

	handler := api.NewRouter(api.Deps{
		Config:       cfg,
		Logger:       app.Logger,
		Resolver:     actor.NewResolver(cfg, members, app.Logger),
		Periods:      services.NewPeriodManager(periodStore, recorder, c, cfg.ServiceRRule, app.Logger),
		Availability: services.NewAvailabilityService(availStore, recorder, c, cfg.ServiceRRule, app.Logger),
		Setlist:      services.NewSetlistManager(setlistStore, roster, recorder, c, cfg.MaxSetlistSlots, app.Logger),
		Roster:       roster,
		AuditLog:     auditStore,
	})

	return handler, recorder
}
