package commands

import (
	"context"
	"fmt"

	"github.com/TimurManjosov/goflagship/internal/cli"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a feature flag",
	Long: `Get details of a specific feature flag.

Examples:
  flagctl get feature_x --app acme --env prod
  flagctl get feature_x --app acme --env prod --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		c, err := newClient()
		if err != nil {
			return err
		}

		ctx := context.Background()
		doc, err := c.GetDefinitions(ctx, app, tenantEnv)
		if err != nil {
			return fmt.Errorf("failed to get definitions: %w", err)
		}

		def, ok := doc.Flags[id]
		if !ok {
			return fmt.Errorf("flag '%s' not found", id)
		}

		if !quiet {
			return cli.PrintFlag(id, def, cli.OutputFormat(format))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
