package commands

import (
	"fmt"

	"github.com/TimurManjosov/goflagship/internal/cli"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage flagctl configuration",
	Long:  `Manage flagctl's configuration file (~/.flagctl/config.yaml).`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long: `Create a default configuration file at ~/.flagctl/config.yaml

Example:
  flagctl config init`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.InitConfig(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		configPath, _ := cli.GetConfigPath()
		fmt.Printf("Configuration file created at: %s\n", configPath)
		fmt.Println("Edit the file to set your server's base URL and keys.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configured profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		fmt.Printf("Default profile: %s\n\n", cfg.DefaultProfile)
		fmt.Println("Profiles:")
		for name, p := range cfg.Profiles {
			fmt.Printf("  %s:\n", name)
			fmt.Printf("    base_url: %s\n", p.BaseURL)
			fmt.Printf("    management_key: %s\n", maskKey(p.ManagementKey))
			if p.EvalKey != "" {
				fmt.Printf("    eval_key: %s\n", maskKey(p.EvalKey))
			}
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <profile> <base_url|management_key|eval_key> <value>",
	Short: "Set a configuration value for a profile",
	Long: `Set a specific configuration value for a named profile, creating the
profile if it doesn't exist.

Examples:
  flagctl config set dev base_url http://localhost:8080
  flagctl config set prod management_key my-secret-key`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		profileName, key, value := args[0], args[1], args[2]

		cfg, err := cli.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.Profiles == nil {
			cfg.Profiles = make(map[string]cli.ProfileConfig)
		}
		p := cfg.Profiles[profileName]

		switch key {
		case "base_url":
			p.BaseURL = value
		case "management_key":
			p.ManagementKey = value
		case "eval_key":
			p.EvalKey = value
		default:
			return fmt.Errorf("unknown key '%s', valid keys: base_url, management_key, eval_key", key)
		}
		cfg.Profiles[profileName] = p

		if err := cli.SaveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Printf("Successfully set %s.%s\n", profileName, key)
		return nil
	},
}

func maskKey(key string) string {
	if len(key) > 4 {
		return key[:4] + "***"
	}
	return "***"
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configSetCmd)
}
