package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a tenant's flags and segments to a file",
	Long: `Export the full flag/segment document for a tenant to a YAML or JSON
file.

Examples:
  flagctl export --app acme --env prod --output flags.yaml
  flagctl export --app acme --env prod --output flags.json --format json
  flagctl export --app acme --env prod > backup.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		ctx := context.Background()
		doc, err := c.GetDefinitions(ctx, app, tenantEnv)
		if err != nil {
			return fmt.Errorf("failed to get definitions: %w", err)
		}

		var output *os.File
		if exportOutput == "" || exportOutput == "-" {
			output = os.Stdout
		} else {
			output, err = os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer output.Close()
		}

		if err := encodeDocument(output, doc, format); err != nil {
			return err
		}

		if exportOutput != "" && exportOutput != "-" && !quiet {
			fmt.Fprintf(os.Stderr, "Successfully exported %d flag(s) to %s\n", len(doc.Flags), exportOutput)
		}
		return nil
	},
}

func encodeDocument(output *os.File, doc flags.Document, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(output)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
	case "yaml", "table":
		encoder := yaml.NewEncoder(output)
		defer encoder.Close()
		encoder.SetIndent(2)
		if err := encoder.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
}
