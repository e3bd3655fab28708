package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/clients/gmailclient"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/services"
)

// SendAvailabilityLinksCmd creates the sendAvailabilityLinks command
func SendAvailabilityLinksCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sendAvailabilityLinks <YYYY-MM>",
		Short: "Email every active member their availability link for a month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targetMonth := args[0]
			app.Logger.Debug("sendAvailabilityLinks command", zap.String("target_month", targetMonth))

			if app.Database == nil {
				return fmt.Errorf("databaseURL must be configured to list members")
			}
			mailer, err := gmailclient.NewClient(app.Ctx, app.Cfg.Gmail)
			if err != nil {
				return fmt.Errorf("failed to create gmail client: %w", err)
			}

			sent, failed, err := services.SendAvailabilityLinks(app.Ctx, app.Database, mailer, app.Cfg, app.Logger, targetMonth)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Availability links for %s processed!\n\n", targetMonth)

			if len(sent) > 0 {
				fmt.Printf("Links sent to %d members:\n", len(sent))
				for _, s := range sent {
					fmt.Printf("  ✓ %s (%s)\n", s.MemberName, s.Email)
				}
				fmt.Println()
			}

			if len(failed) > 0 {
				fmt.Printf("⚠️  Failed to send %d emails:\n", len(failed))
				for _, f := range failed {
					fmt.Printf("  ✗ %s (%s): %s\n", f.MemberName, f.Email, f.Error)
				}
				fmt.Println()
			}

			if len(sent) == 0 && len(failed) == 0 {
				fmt.Println("No active members with an email and availability link.")
			}

			return nil
		},
	}
}
