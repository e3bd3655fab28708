package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/postgres"
)

// MigrateCmd creates the migrate command
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pg, ok := app.Database.(*postgres.DB)
			if !ok {
				return fmt.Errorf("databaseURL must be configured to run migrations")
			}

			applied, err := pg.RunMigrations(app.Ctx)
			if err != nil {
				return err
			}
			app.Logger.Info("Migrations complete", zap.Int("applied", len(applied)))

			if len(applied) == 0 {
				fmt.Println("Database is up to date.")
				return nil
			}
			fmt.Printf("\n✓ Applied %d migrations:\n", len(applied))
			for _, name := range applied {
				fmt.Printf("  ✓ %s\n", name)
			}
			fmt.Println()
			return nil
		},
	}
}
