package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// errWorkbooksFailed is returned after the summary when some workbooks failed.
var errWorkbooksFailed = errors.New("some workbooks failed")

// GenerateOptions holds options for the generate command.
type GenerateOptions struct {
	DryRun bool
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	opts := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:     "generate <workbook|dir>...",
		Aliases: []string{"run"},
		Short:   "Generate detail workbooks",
		Long: `Read each report workbook, rewrite every marker-wrapped SQL statement into
its detail form and write <name><suffix>.xlsx next to the input.

Directories contribute the .xlsx, .xlsm and .csv files directly inside them.
SQL columns are detected from cells containing the marker; use --sql-columns
to pick them by header name or 1-based index instead.`,
		Example: `  # Process one workbook
  leapdetail generate reports/balance.xlsx

  # Process a folder into a separate output directory
  leapdetail generate reports/ --output-dir out/

  # Pick SQL columns explicitly and only report what would be written
  leapdetail generate balance.xlsx --sql-columns 本期,3 --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, opts)
		},
	}

	addGenerateFlags(cmd)
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Process workbooks without writing outputs")

	return cmd
}

// addGenerateFlags registers the column and output flags shared by the
// commands that write detail workbooks. They are read through the config
// loader, not bound to variables.
func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("sql-columns", nil, "SQL columns by header name or 1-based index")
	cmd.Flags().String("code-column", "", "Column holding the indicator code")
	cmd.Flags().String("name-column", "", "Column holding the indicator name")
	cmd.Flags().String("suffix", "", "Suffix appended to output file names")
	cmd.Flags().String("output-dir", "", "Directory for output workbooks (default: next to each input)")
	cmd.Flags().Int("workers", 0, "Number of workbooks processed at once")
}

func runGenerate(cmd *cobra.Command, args []string, opts *GenerateOptions) error {
	ctx := cmd.Context()

	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	eng, cleanup, err := cmdCtx.NewEngine(ctx, opts.DryRun)
	if err != nil {
		return err
	}
	defer cleanup()

	inputs, err := eng.Discover(args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no workbooks found in %v", args)
	}

	summary, runErr := eng.Run(ctx, inputs)
	if summary != nil {
		if err := renderSummary(cmdCtx.Renderer, summary); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", errWorkbooksFailed, summary.Failed, len(summary.Files))
	}
	return nil
}
