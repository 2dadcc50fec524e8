package commands

import (
	"context"
	"fmt"

	"github.com/TimurManjosov/goflagship/internal/cli"
	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/spf13/cobra"
)

var listEnabledOnly bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all feature flags",
	Long: `List all feature flag and segment definitions for a tenant.

Examples:
  flagctl list --app acme --env prod
  flagctl list --app acme --env prod --format json
  flagctl list --app acme --env prod --enabled-only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		ctx := context.Background()
		doc, err := c.GetDefinitions(ctx, app, tenantEnv)
		if err != nil {
			return fmt.Errorf("failed to list flags: %w", err)
		}

		if listEnabledOnly {
			filtered := flags.NewDocument()
			for id, def := range doc.Flags {
				if def.Enabled {
					filtered.Flags[id] = def
				}
			}
			filtered.Segments = doc.Segments
			doc = filtered
		}

		if !quiet {
			if len(doc.Flags) == 0 {
				fmt.Println("No flags found")
				return nil
			}
			return cli.PrintDocument(doc, cli.OutputFormat(format))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listEnabledOnly, "enabled-only", false, "Show only enabled flags")
}
