package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	importDryRun bool
	importForce  bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import flags and segments from a file",
	Long: `Import a flag/segment document (as exported by "flagctl export") into
a tenant. Each flag is written with PUT, so an import fully replaces any
existing flag of the same id.

Examples:
  flagctl import flags.yaml --app acme --env prod
  flagctl import flags.yaml --app acme --env staging --dry-run
  flagctl import flags.yaml --app acme --env prod --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		var doc flags.Document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse file: %w", err)
		}
		if len(doc.Flags) == 0 {
			return fmt.Errorf("no flags found in file")
		}

		if verbose {
			fmt.Printf("Found %d flag(s) and %d segment(s) to import\n", len(doc.Flags), len(doc.Segments))
		}

		if importDryRun {
			fmt.Println("Dry run mode - the following flags would be imported:")
			for id, def := range doc.Flags {
				fmt.Printf("  - %s (type: %s, enabled: %v, rollout: %d%%)\n", id, def.Type, def.Enabled, def.Rollout)
			}
			return nil
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		ctx := context.Background()

		successCount, errorCount := 0, 0
		for id, expr := range doc.Segments {
			if err := c.PutSegment(ctx, app, tenantEnv, id, expr); err != nil {
				errorCount++
				fmt.Fprintf(os.Stderr, "Failed to import segment '%s': %v\n", id, err)
				if !importForce {
					return fmt.Errorf("import failed, use --force to continue on errors")
				}
			}
		}
		for id, def := range doc.Flags {
			if verbose {
				fmt.Printf("Importing flag: %s\n", id)
			}
			if err := c.PutFlag(ctx, app, tenantEnv, id, def); err != nil {
				errorCount++
				fmt.Fprintf(os.Stderr, "Failed to import flag '%s': %v\n", id, err)
				if !importForce {
					return fmt.Errorf("import failed, use --force to continue on errors")
				}
				continue
			}
			successCount++
		}

		if !quiet {
			fmt.Printf("Import complete: %d succeeded, %d failed\n", successCount, errorCount)
		}
		if errorCount > 0 && !importForce {
			return fmt.Errorf("import completed with errors")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate without importing")
	importCmd.Flags().BoolVar(&importForce, "force", false, "Continue on errors")
}
