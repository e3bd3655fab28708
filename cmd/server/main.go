package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/JiggerF/worship-ministry-app-sub000/cmd/server/commands"
	"github.com/JiggerF/worship-ministry-app-sub000/internal/config"
)

func main() {
	var env string
	app := &commands.AppContext{Ctx: context.Background()}

	rootCmd := &cobra.Command{
		Use:   "rota",
		Short: "Worship roster backend",
		Long:  `Serves the roster HTTP API and runs maintenance tasks: migrations and availability link emails.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return commands.InitApp(app, env, cmd.Name() == "serve")
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", config.EnvDevelopment, "Environment (development, test, production)")

	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.SendAvailabilityLinksCmd(app))

	if err := rootCmd.Execute(); err != nil {
		app.Close()
		os.Exit(1)
	}
}
