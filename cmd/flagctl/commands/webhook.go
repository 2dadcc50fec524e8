package commands

import (
	"fmt"

	"github.com/TimurManjosov/goflagship/internal/webhook"
	"github.com/spf13/cobra"
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage webhook signing secrets",
}

var webhookGenerateSecretCmd = &cobra.Command{
	Use:   "generate-secret",
	Short: "Generate a new webhook endpoint secret",
	Long: `Generate a cryptographically random secret for signing outbound
webhook deliveries. Set the result as WEBHOOK_SECRET on the server, or pass
it when registering a new endpoint.

Example:
  flagctl webhook generate-secret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := webhook.GenerateSecret()
		if err != nil {
			return fmt.Errorf("failed to generate secret: %w", err)
		}
		fmt.Println(secret)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(webhookCmd)
	webhookCmd.AddCommand(webhookGenerateSecretCmd)
}
