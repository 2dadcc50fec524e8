package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/TimurManjosov/goflagship/internal/client"
	"github.com/spf13/cobra"
)

var (
	evaluateUserID   string
	evaluateFlagID   string
	evaluateUserJSON string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate flags the way an application would",
	Long: `Evaluate every flag for a tenant, or a single flag with --flag, using
the same evaluation endpoint the SDK uses.

Examples:
  flagctl evaluate --app acme --env prod --user-id user-1
  flagctl evaluate --app acme --env prod --flag feature_x --user '{"plan":"beta"}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		in := client.EvaluationInput{ID: evaluateUserID}
		if evaluateUserJSON != "" {
			var user any
			if err := json.Unmarshal([]byte(evaluateUserJSON), &user); err != nil {
				return fmt.Errorf("invalid --user JSON: %w", err)
			}
			in.User = user
		}

		ctx := context.Background()
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		if evaluateFlagID != "" {
			res, err := c.EvaluateOne(ctx, app, tenantEnv, evaluateFlagID, in)
			if err != nil {
				return fmt.Errorf("evaluation failed: %w", err)
			}
			return encoder.Encode(res)
		}

		results, err := c.Evaluate(ctx, app, tenantEnv, in)
		if err != nil {
			return fmt.Errorf("evaluation failed: %w", err)
		}
		return encoder.Encode(results)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evaluateUserID, "user-id", "", "Stable identifier used for bucketing")
	evaluateCmd.Flags().StringVar(&evaluateFlagID, "flag", "", "Evaluate only this flag id")
	evaluateCmd.Flags().StringVar(&evaluateUserJSON, "user", "", "User attributes as JSON, evaluated against segments")
}
