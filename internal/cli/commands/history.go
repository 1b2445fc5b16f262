package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/leapdetail/internal/cli/config"
	"github.com/leapstack-labs/leapdetail/internal/cli/output"
	"github.com/leapstack-labs/leapdetail/internal/state"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show previous generation runs",
		Long: `List recent runs recorded in the run history database, or show the files
of one run. A run may be selected by a unique prefix of its ID.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "Number of runs to list (0 for all)")

	return cmd
}

type runDetailJSON struct {
	*state.Run
	Files []*state.FileOutcome `json:"files"`
}

func runHistory(cmd *cobra.Command, args []string, opts *HistoryOptions) error {
	ctx := cmd.Context()
	cfg := getConfig()
	logger := config.GetLogger(ctx)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	if cfg.StatePath == "" {
		return errors.New("run history is disabled (state_path is empty)")
	}
	if _, err := os.Stat(cfg.StatePath); errors.Is(err, os.ErrNotExist) {
		r.Muted("no runs recorded yet")
		return nil
	}

	store, err := state.OpenStore(ctx, cfg.StatePath, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if len(args) == 1 {
		return showRun(ctx, r, store, args[0])
	}

	runs, err := store.ListRuns(ctx, opts.Limit)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		if runs == nil {
			runs = []*state.Run{}
		}
		return r.JSON(runs)
	}

	if len(runs) == 0 {
		r.Muted("no runs recorded yet")
		return nil
	}

	r.Header(1, "Runs")
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			run.StartedAt.Local().Format(time.DateTime),
			string(run.Status),
			fmt.Sprintf("%d", run.Inputs),
			fmt.Sprintf("%d", run.Succeeded),
			fmt.Sprintf("%d", run.Failed),
		})
	}
	r.Table([]string{"Run", "Started", "Status", "Inputs", "Succeeded", "Failed"}, rows)
	return nil
}

func showRun(ctx context.Context, r *output.Renderer, store *state.SQLiteStore, prefix string) error {
	run, err := findRun(ctx, store, prefix)
	if err != nil {
		return err
	}
	files, err := store.ListFiles(ctx, run.ID)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		if files == nil {
			files = []*state.FileOutcome{}
		}
		return r.JSON(runDetailJSON{Run: run, Files: files})
	}

	r.Header(1, "Run "+run.ID)
	r.Println(output.FormatKeyValue("Status", string(run.Status)))
	r.Println(output.FormatKeyValue("Started", run.StartedAt.Local().Format(time.DateTime)))
	if run.CompletedAt != nil {
		r.Println(output.FormatKeyValue("Duration", run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()))
	}
	if run.Error != "" {
		r.Println(output.FormatKeyValue("Error", run.Error))
	}
	r.Println("")

	for _, f := range files {
		detail := f.Error
		if f.Status == state.FileStatusSuccess {
			detail = fmt.Sprintf("→ %s (%d records, %d skipped)", filepath.Base(f.OutputPath), f.Records, f.Skipped)
		}
		r.StatusLine(f.InputPath, string(f.Status), detail)
	}
	return nil
}

// findRun resolves a full run ID or a unique prefix of one.
func findRun(ctx context.Context, store *state.SQLiteStore, prefix string) (*state.Run, error) {
	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		return nil, err
	}

	var matches []*state.Run
	for _, run := range runs {
		if run.ID == prefix {
			return run, nil
		}
		if strings.HasPrefix(run.ID, prefix) {
			matches = append(matches, run)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("run not found: %s", prefix)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("run ID prefix %q is ambiguous (%d runs)", prefix, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
