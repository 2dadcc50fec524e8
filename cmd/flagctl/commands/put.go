package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/spf13/cobra"
)

var (
	putType        string
	putEnabled     bool
	putRollout     int
	putPayload     string
	putSegments    []string
	putLabel       string
	putDescription string
)

var putCmd = &cobra.Command{
	Use:   "put <id>",
	Short: "Create or fully replace a feature flag",
	Long: `Create a new feature flag, or replace an existing one entirely, with
the specified id and options.

Examples:
  flagctl put feature_x --type boolean --enabled --rollout 50 --app acme --env prod
  flagctl put feature_y --type payload --payload '{"color":"blue"}' --app acme --env prod`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		var payload json.RawMessage
		if putPayload != "" {
			if !json.Valid([]byte(putPayload)) {
				return fmt.Errorf("invalid payload JSON")
			}
			payload = json.RawMessage(putPayload)
		}

		c, err := newClient()
		if err != nil {
			return err
		}

		def := flags.Definition{
			ID:          id,
			Type:        flags.Type(putType),
			Enabled:     putEnabled,
			Rollout:     putRollout,
			Segments:    putSegments,
			Payload:     payload,
			HasPayload:  payload != nil,
			Label:       putLabel,
			Description: putDescription,
		}

		ctx := context.Background()
		if err := c.PutFlag(ctx, app, tenantEnv, id, def); err != nil {
			return fmt.Errorf("failed to put flag: %w", err)
		}

		if !quiet {
			fmt.Printf("Successfully put flag '%s' for %s/%s\n", id, app, tenantEnv)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(putCmd)

	putCmd.Flags().StringVar(&putType, "type", "boolean", "Flag type (boolean, payload, variant)")
	putCmd.Flags().BoolVar(&putEnabled, "enabled", false, "Enable the flag")
	putCmd.Flags().IntVar(&putRollout, "rollout", 100, "Rollout percentage (0-100)")
	putCmd.Flags().StringVar(&putPayload, "payload", "", "Flag payload as JSON")
	putCmd.Flags().StringSliceVar(&putSegments, "segments", nil, "Segment ids this flag references")
	putCmd.Flags().StringVar(&putLabel, "label", "", "Flag label")
	putCmd.Flags().StringVar(&putDescription, "description", "", "Flag description")
}
