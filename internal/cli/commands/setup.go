package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapdetail/internal/cli/config"
	"github.com/leapstack-labs/leapdetail/internal/cli/output"
	intconfig "github.com/leapstack-labs/leapdetail/internal/config"
	"github.com/leapstack-labs/leapdetail/internal/engine"
	"github.com/leapstack-labs/leapdetail/internal/state"
	"github.com/leapstack-labs/leapdetail/pkg/detail"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg           *config.Config
	Logger        *slog.Logger
	Renderer      *output.Renderer
	Transformer   *detail.Transformer
	MappingSource intconfig.MappingSource
}

// NewCommandContext loads the field mapping and creates the renderer.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	mapping, source, err := cfg.Mapping()
	if err != nil {
		return nil, err
	}
	if source == intconfig.MappingSourceBuiltin {
		logger.Warn("no field mapping configured, using the built-in example tables",
			slog.Any("tables", mapping.Keys()))
	}
	logger.Debug("field mapping loaded", slog.String("source", string(source)), slog.Int("tables", mapping.Len()))

	return &CommandContext{
		Cfg:           cfg,
		Logger:        logger,
		Renderer:      output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
		Transformer:   detail.New(mapping),
		MappingSource: source,
	}, nil
}

// NewEngine creates an engine from the configuration. Run history is
// recorded unless state_path is empty or dryRun is set. The returned
// cleanup function must be called (typically via defer).
func (c *CommandContext) NewEngine(ctx context.Context, dryRun bool) (*engine.Engine, func(), error) {
	cleanup := func() {}

	var store state.Store
	if c.Cfg.StatePath != "" && !dryRun {
		s, err := state.OpenStore(ctx, c.Cfg.StatePath, c.Logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open run history: %w", err)
		}
		store = s
		cleanup = func() { _ = s.Close() }
	}

	eng, err := engine.New(engine.Config{
		Transformer:  c.Transformer,
		Marker:       c.Cfg.Marker,
		Columns:      c.Cfg.Columns,
		OutputSuffix: c.Cfg.OutputSuffix,
		OutputDir:    c.Cfg.OutputDir,
		Workers:      c.Cfg.Workers,
		DryRun:       dryRun,
		Store:        store,
		Logger:       c.Logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return eng, cleanup, nil
}

// getConfig returns the current configuration, falling back to defaults
// when no configuration was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}
