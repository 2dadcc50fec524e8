package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a feature flag",
	Long: `Delete a feature flag from the specified tenant.

Examples:
  flagctl delete feature_x --app acme --env prod
  flagctl delete feature_x --app acme --env prod --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		if !deleteForce && !quiet {
			fmt.Printf("Are you sure you want to delete flag '%s' from %s/%s? (y/N): ", id, app, tenantEnv)
			reader := bufio.NewReader(os.Stdin)
			response, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read confirmation: %w", err)
			}
			response = strings.ToLower(strings.TrimSpace(response))
			if response != "y" && response != "yes" {
				fmt.Println("Deletion cancelled")
				return nil
			}
		}

		c, err := newClient()
		if err != nil {
			return err
		}

		ctx := context.Background()
		if err := c.DeleteFlag(ctx, app, tenantEnv, id); err != nil {
			return fmt.Errorf("failed to delete flag: %w", err)
		}

		if !quiet {
			fmt.Printf("Successfully deleted flag '%s' from %s/%s\n", id, app, tenantEnv)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Skip confirmation prompt")
}
