// Package engine generates detail workbooks from report workbooks.
// It reads each workbook, rewrites its marker SQL, writes the companion
// workbook and records the run in the state store.
package engine

import (
	"errors"
	"log/slog"

	"github.com/leapstack-labs/leapdetail/internal/config"
	"github.com/leapstack-labs/leapdetail/internal/extract"
	"github.com/leapstack-labs/leapdetail/internal/state"
	"github.com/leapstack-labs/leapdetail/pkg/detail"
)

// ErrNoRecords is returned for a workbook without any rewritable SQL.
var ErrNoRecords = errors.New("no rewritable SQL found")

// ErrOutputConflict is returned for a workbook whose output path was
// already claimed by an earlier input of the same run.
var ErrOutputConflict = errors.New("output path already used")

// ErrNoSQLColumns is returned for a workbook without marker columns.
var ErrNoSQLColumns = extract.ErrNoSQLColumns

// Engine processes report workbooks.
type Engine struct {
	extractor    *extract.Extractor
	store        state.Store
	outputSuffix string
	outputDir    string
	workers      int
	dryRun       bool
	logger       *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// Transformer rewrites the extracted SQL (required).
	Transformer *detail.Transformer
	// Marker is the function name wrapping SQL in report cells.
	Marker string
	// Columns selects the SQL and label columns; empty values enable detection.
	Columns config.ColumnsConfig
	// OutputSuffix is appended to the input file stem.
	OutputSuffix string
	// OutputDir receives the outputs; empty writes next to each input.
	OutputDir string
	// Workers bounds the number of workbooks processed at once.
	Workers int
	// DryRun processes workbooks without writing outputs.
	DryRun bool
	// Store records runs (optional).
	Store state.Store
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates a new engine.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	extractor, err := extract.New(extract.Config{
		Transformer: cfg.Transformer,
		Marker:      cfg.Marker,
		Columns:     cfg.Columns,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = config.DefaultWorkers
	}
	suffix := cfg.OutputSuffix
	if suffix == "" && cfg.OutputDir == "" {
		suffix = config.DefaultOutputSuffix
	}

	return &Engine{
		extractor:    extractor,
		store:        cfg.Store,
		outputSuffix: suffix,
		outputDir:    cfg.OutputDir,
		workers:      workers,
		dryRun:       cfg.DryRun,
		logger:       logger,
	}, nil
}
