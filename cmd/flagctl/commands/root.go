package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	baseURL       string
	managementKey string
	profile       string
	app           string
	tenantEnv     string
	format        string
	quiet         bool
	verbose       bool
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "flagctl",
	Short: "CLI tool for managing flagship feature flags",
	Long: `flagctl manages feature flags and segments on a flagship server.

It provides commands for creating, reading, updating, and deleting flag and
segment definitions, for syncing a tenant's definitions between
environments, and for evaluating flags the way an application would.

Examples:
  flagctl list --app acme --env prod
  flagctl put my_flag --type boolean --enabled --rollout 50 --app acme --env prod
  flagctl get my_flag --app acme --env prod
  flagctl sync --target-env staging --app acme --env prod
  flagctl evaluate --app acme --env prod --user-id user-1`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the flagship API")
	rootCmd.PersistentFlags().StringVar(&managementKey, "api-key", "", "Management API key for authentication")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Named profile from ~/.flagctl/config.yaml")
	rootCmd.PersistentFlags().StringVar(&app, "app", "", "Tenant app id (X-App-Id)")
	rootCmd.PersistentFlags().StringVar(&tenantEnv, "env", "", "Tenant environment id (X-Env-Id)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
}
