package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/TimurManjosov/goflagship/internal/client"
	"github.com/spf13/cobra"
)

var (
	updateEnabled     string // "true"/"false", empty means unset
	updateRollout     int
	updatePayload     string
	updateDescription string
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Partially update a feature flag",
	Long: `Apply a partial update to an existing feature flag. Only the fields
explicitly passed are changed.

Examples:
  flagctl update feature_x --enabled=false --app acme --env prod
  flagctl update feature_x --rollout 75 --app acme --env prod
  flagctl update feature_x --payload '{"color":"red"}' --app acme --env prod`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		c, err := newClient()
		if err != nil {
			return err
		}

		var patch client.FlagPatch
		if updateEnabled != "" {
			v := updateEnabled == "true"
			patch.Enabled = &v
		}
		if cmd.Flags().Changed("rollout") {
			patch.Rollout = &updateRollout
		}
		if updatePayload != "" {
			if !json.Valid([]byte(updatePayload)) {
				return fmt.Errorf("invalid payload JSON")
			}
			raw := json.RawMessage(updatePayload)
			patch.Payload = &raw
		}
		if cmd.Flags().Changed("description") {
			patch.Description = &updateDescription
		}

		ctx := context.Background()
		if err := c.UpdateFlag(ctx, app, tenantEnv, id, patch); err != nil {
			return fmt.Errorf("failed to update flag: %w", err)
		}

		if !quiet {
			fmt.Printf("Successfully updated flag '%s' for %s/%s\n", id, app, tenantEnv)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().StringVar(&updateEnabled, "enabled", "", "Enable/disable the flag (true/false)")
	updateCmd.Flags().IntVar(&updateRollout, "rollout", 0, "Rollout percentage (0-100)")
	updateCmd.Flags().StringVar(&updatePayload, "payload", "", "Flag payload as JSON")
	updateCmd.Flags().StringVar(&updateDescription, "description", "", "Flag description")
}
