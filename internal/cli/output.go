package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// OutputFormat specifies the output format for CLI commands.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// namedDefinition pairs a flag id with its definition for stable,
// sorted rendering of a flags.Document's map.
type namedDefinition struct {
	ID         string `json:"id" yaml:"id"`
	flags.Definition `yaml:",inline"`
}

// PrintDocument outputs a tenant's flags (and, for JSON/YAML, segments
// too) in the requested format.
func PrintDocument(doc flags.Document, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(doc)
	case FormatYAML:
		return printYAML(doc)
	case FormatTable:
		return printTable(sortedDefinitions(doc))
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintFlag outputs a single flag definition in the requested format.
func PrintFlag(id string, def flags.Definition, format OutputFormat) error {
	named := namedDefinition{ID: id, Definition: def}
	switch format {
	case FormatJSON:
		return printJSON(named)
	case FormatYAML:
		return printYAML(named)
	case FormatTable:
		return printTable([]namedDefinition{named})
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func sortedDefinitions(doc flags.Document) []namedDefinition {
	ids := make([]string, 0, len(doc.Flags))
	for id := range doc.Flags {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]namedDefinition, 0, len(ids))
	for _, id := range ids {
		out = append(out, namedDefinition{ID: id, Definition: doc.Flags[id]})
	}
	return out
}

func printJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(data any) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func printTable(defs []namedDefinition) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Type", "Enabled", "Rollout", "Segments", "Label")

	for _, d := range defs {
		label := d.Label
		if len(label) > 40 {
			label = label[:37] + "..."
		}
		table.Append(
			d.ID,
			string(d.Type),
			fmt.Sprintf("%v", d.Enabled),
			fmt.Sprintf("%d%%", d.Rollout),
			fmt.Sprintf("%d", len(d.Segments)),
			label,
		)
	}

	return table.Render()
}
