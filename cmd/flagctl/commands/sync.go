package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	syncSourceEnv string
	syncTargetEnv string
	syncOverwrite bool
	syncFlagID    string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync flag and segment definitions between environments",
	Long: `Copy a tenant's flag and segment definitions from one environment to
another. With --flag, only that one flag is copied. Unless --overwrite is
set, copied flags are force-disabled at the destination so a sync can
never silently turn a flag on in production.

Examples:
  flagctl sync --app acme --env prod --target-env staging
  flagctl sync --app acme --env prod --target-env staging --flag feature_x --overwrite`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncTargetEnv == "" {
			return fmt.Errorf("--target-env is required")
		}

		c, err := newClient()
		if err != nil {
			return err
		}

		ctx := context.Background()
		if syncFlagID != "" {
			err = c.SyncFlag(ctx, app, tenantEnv, syncFlagID, syncSourceEnv, syncTargetEnv, syncOverwrite)
		} else {
			err = c.SyncEnv(ctx, app, tenantEnv, syncSourceEnv, syncTargetEnv, syncOverwrite)
		}
		if err != nil {
			return fmt.Errorf("failed to sync: %w", err)
		}

		if !quiet {
			fmt.Printf("Successfully synced %s/%s -> %s/%s\n", app, tenantEnv, app, syncTargetEnv)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringVar(&syncSourceEnv, "source-env", "", "Source environment (defaults to --env)")
	syncCmd.Flags().StringVar(&syncTargetEnv, "target-env", "", "Target environment (required)")
	syncCmd.Flags().BoolVar(&syncOverwrite, "overwrite", false, "Preserve the enabled state of copied flags")
	syncCmd.Flags().StringVar(&syncFlagID, "flag", "", "Sync only this flag id")
}
