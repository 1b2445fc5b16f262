package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	Debounce time.Duration
	Initial  bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Regenerate detail workbooks when reports change",
		Long: `Watch a directory and regenerate the detail workbook of every report that is
created or saved there. Changes are batched until the directory has been quiet
for the debounce interval. Outputs and Office lock files are ignored.`,
		Example: `  leapdetail watch reports/ --initial`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], opts)
		},
	}

	addGenerateFlags(cmd)
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 500*time.Millisecond, "Quiet period before processing changes")
	cmd.Flags().BoolVar(&opts.Initial, "initial", false, "Process existing workbooks before watching")

	return cmd
}

func runWatch(cmd *cobra.Command, dir string, opts *WatchOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	logger := cmdCtx.Logger

	eng, cleanup, err := cmdCtx.NewEngine(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	process := func(files []string) {
		summary, err := eng.Run(ctx, files)
		if summary != nil {
			if rerr := renderSummary(cmdCtx.Renderer, summary); rerr != nil {
				logger.Error("failed to render summary", slog.String("error", rerr.Error()))
			}
		}
		if err != nil && ctx.Err() == nil {
			logger.Error("run failed", slog.String("error", err.Error()))
		}
	}

	if opts.Initial {
		files, err := eng.Discover([]string{dir})
		if err != nil {
			return err
		}
		if len(files) > 0 {
			process(files)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	cmdCtx.Renderer.Muted(fmt.Sprintf("watching %s (Ctrl+C to stop)", dir))
	logger.Info("watching directory", slog.String("dir", dir), slog.Duration("debounce", opts.Debounce))

	watchLoop(ctx, watcher.Events, watcher.Errors, opts.Debounce, eng.Accepts, process, logger)
	return nil
}

// watchLoop collects changed workbooks from events and hands them to process
// once no event arrived for the debounce interval. It returns when ctx ends
// or a channel is closed.
func watchLoop(
	ctx context.Context,
	events <-chan fsnotify.Event,
	errs <-chan error,
	debounce time.Duration,
	accept func(string) bool,
	process func([]string),
	logger *slog.Logger,
) {
	pending := make(map[string]bool)
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !accept(event.Name) {
				continue
			}
			logger.Debug("workbook changed", slog.String("file", event.Name), slog.String("op", event.Op.String()))
			pending[event.Name] = true
			timer.Reset(debounce)

		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Warn("watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			var files []string
			for name := range pending {
				if _, err := os.Stat(name); err == nil {
					files = append(files, name)
				}
			}
			clear(pending)
			if len(files) == 0 {
				continue
			}
			slices.Sort(files)
			process(files)
		}
	}
}
