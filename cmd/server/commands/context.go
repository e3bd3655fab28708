package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JiggerF/worship-ministry-app-sub000/internal/config"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/postgres"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/utils/logging"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg *config.Config
	// Database is nil when no databaseURL is configured
	Database db.Database
	Logger   *zap.Logger
	Ctx      context.Context
}

// InitApp loads configuration, builds the logger and connects to the
// datastore when one is configured. server selects the JSON stdout logger.
func InitApp(app *AppContext, env string, server bool) error {
	cfg, err := config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Cfg = cfg

	if server {
		app.Logger = logging.InitServerLogger(cfg.IsDevelopment())
	} else {
		app.Logger, err = logging.InitLogger(env)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	app.Logger.Info("Starting application",
		zap.String("environment", cfg.Environment),
		zap.String("timezone", cfg.Timezone))

	if !cfg.HasDatabase() {
		app.Logger.Warn("No databaseURL configured; datastore-backed operations will fail")
		return nil
	}

	app.Logger.Info("Connecting to database")
	pg, err := postgres.NewDB(app.Ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.Database = pg
	app.Logger.Debug("Database connected")

	return nil
}

// Close releases the datastore and flushes the logger
func (app *AppContext) Close() {
	if app.Database != nil {
		app.Database.Close()
		app.Database = nil
	}
	if app.Logger != nil {
		_ = app.Logger.Sync()
	}
}
