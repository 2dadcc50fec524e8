package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var segmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Manage segments",
}

var segmentPutCmd = &cobra.Command{
	Use:   "put <id> <expression>",
	Short: "Create or replace a segment",
	Long: `Create a new segment, or replace an existing one, with the given
expression.

Examples:
  flagctl segment put beta-users "user.plan == \"beta\"" --app acme --env prod`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, expression := args[0], args[1]

		c, err := newClient()
		if err != nil {
			return err
		}

		ctx := context.Background()
		if err := c.PutSegment(ctx, app, tenantEnv, id, expression); err != nil {
			return fmt.Errorf("failed to put segment: %w", err)
		}

		if !quiet {
			fmt.Printf("Successfully put segment '%s' for %s/%s\n", id, app, tenantEnv)
		}
		return nil
	},
}

var segmentDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a segment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		c, err := newClient()
		if err != nil {
			return err
		}

		ctx := context.Background()
		if err := c.DeleteSegment(ctx, app, tenantEnv, id); err != nil {
			return fmt.Errorf("failed to delete segment: %w", err)
		}

		if !quiet {
			fmt.Printf("Successfully deleted segment '%s' from %s/%s\n", id, app, tenantEnv)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(segmentCmd)
	segmentCmd.AddCommand(segmentPutCmd)
	segmentCmd.AddCommand(segmentDeleteCmd)
}
