package commands

import (
	"strings"

	"github.com/leapstack-labs/leapdetail/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the field mapping",
		Long: `List the effective table-to-field mapping. Tables that are not listed
project * in detail SQL.`,
		Args: cobra.NoArgs,
		RunE: runTables,
	}
}

type tablesJSON struct {
	Source string              `json:"source"`
	Tables map[string][]string `json:"tables"`
}

func runTables(cmd *cobra.Command, _ []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer
	mapping := cmdCtx.Transformer.Mapping()

	if r.EffectiveMode() == output.ModeJSON {
		out := tablesJSON{Source: string(cmdCtx.MappingSource), Tables: make(map[string][]string, mapping.Len())}
		for _, key := range mapping.Keys() {
			out.Tables[key] = mapping.Fields(key)
		}
		return r.JSON(out)
	}

	rows := make([][]string, 0, mapping.Len())
	for _, key := range mapping.Keys() {
		rows = append(rows, []string{key, strings.Join(mapping.Fields(key), ", ")})
	}

	r.Header(1, "Field Mapping")
	r.Table([]string{"Table", "Fields"}, rows)
	r.Println("")
	r.Muted("source: " + string(cmdCtx.MappingSource))
	return nil
}
