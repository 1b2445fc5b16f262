package engine

// run.go - concurrent processing of a set of workbooks

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapdetail/internal/extract"
	"github.com/leapstack-labs/leapdetail/internal/sheet"
	"github.com/leapstack-labs/leapdetail/internal/state"
)

// FileResult is the outcome of one workbook.
type FileResult struct {
	Input      string
	Output     string
	Extraction *extract.Extraction
	Err        error
	Duration   time.Duration
}

// OK reports whether the workbook produced an output.
func (r *FileResult) OK() bool {
	return r.Err == nil
}

// Records returns the records generated for the workbook.
func (r *FileResult) Records() []sheet.Record {
	if r.Extraction == nil {
		return nil
	}
	return r.Extraction.Records
}

// Skipped returns the number of marker cells that could not be rewritten.
func (r *FileResult) Skipped() int {
	if r.Extraction == nil {
		return 0
	}
	return len(r.Extraction.Skipped)
}

// Summary is the outcome of a run.
type Summary struct {
	RunID     string
	Files     []*FileResult
	Succeeded int
	Failed    int
	Records   int
	Skipped   int
	Duration  time.Duration
	DryRun    bool
}

// Run processes inputs concurrently. A failing workbook never stops the
// others; its error is reported in its FileResult. The returned error is
// non-nil only when the run itself could not be recorded or ctx ended.
func (e *Engine) Run(ctx context.Context, inputs []string) (*Summary, error) {
	start := time.Now()
	e.logger.Info("starting run", slog.Int("inputs", len(inputs)), slog.Bool("dry_run", e.dryRun))

	summary := &Summary{DryRun: e.dryRun}

	var run *state.Run
	if e.store != nil && !e.dryRun {
		var err error
		run, err = e.store.CreateRun(ctx, len(inputs))
		if err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
		summary.RunID = run.ID
		e.logger.Debug("created run", slog.String("run_id", run.ID))
	}

	// Each goroutine owns one slot.
	results := make([]*FileResult, len(inputs))
	conflicts := e.outputConflicts(inputs)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, input := range inputs {
		if err, ok := conflicts[i]; ok {
			results[i] = &FileResult{Input: input, Output: e.OutputPath(input), Err: err}
			e.logger.Warn("output conflict", slog.String("input", input), slog.String("error", err.Error()))
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = &FileResult{Input: input, Err: err}
				return err
			}
			results[i] = e.ProcessFile(gctx, input)
			return nil
		})
	}
	runErr := g.Wait()

	for _, res := range results {
		if res == nil {
			continue
		}
		summary.Files = append(summary.Files, res)
		summary.Skipped += res.Skipped()
		if res.OK() {
			summary.Succeeded++
			summary.Records += len(res.Records())
		} else {
			summary.Failed++
		}
		if run != nil {
			e.recordFile(ctx, run.ID, res)
		}
	}
	summary.Duration = time.Since(start)

	if run != nil {
		status, errMsg := state.RunStatusCompleted, ""
		switch {
		case runErr != nil:
			status, errMsg = state.RunStatusCancelled, runErr.Error()
		case summary.Failed > 0:
			status, errMsg = state.RunStatusFailed, fmt.Sprintf("%d of %d workbook(s) failed", summary.Failed, len(inputs))
		}
		// The run is closed even when ctx was cancelled.
		if err := e.store.CompleteRun(context.WithoutCancel(ctx), run.ID, status, summary.Succeeded, summary.Failed, errMsg); err != nil {
			e.logger.Warn("failed to complete run", slog.String("run_id", run.ID), slog.String("error", err.Error()))
		}
	}

	e.logger.Info("run finished",
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed),
		slog.Int("records", summary.Records),
		slog.Duration("duration", summary.Duration))

	if runErr != nil {
		return summary, runErr
	}
	return summary, nil
}

// ProcessFile generates the detail workbook for one input.
func (e *Engine) ProcessFile(ctx context.Context, input string) *FileResult {
	start := time.Now()
	res := &FileResult{Input: input, Output: e.OutputPath(input)}
	defer func() { res.Duration = time.Since(start) }()

	logger := e.logger.With(slog.String("input", input))

	if filepath.Clean(res.Output) == filepath.Clean(input) {
		res.Err = fmt.Errorf("output %s would overwrite the input", res.Output)
		return res
	}

	tbl, err := sheet.Read(input)
	if err != nil {
		res.Err = err
		logger.Warn("failed to read workbook", slog.String("error", err.Error()))
		return res
	}

	extraction, err := e.extractor.Extract(tbl)
	if err != nil {
		res.Err = err
		logger.Warn("failed to extract SQL", slog.String("error", err.Error()))
		return res
	}
	res.Extraction = extraction

	if len(extraction.Records) == 0 {
		res.Err = fmt.Errorf("%w in %s (%d statement(s) skipped)", ErrNoRecords, filepath.Base(input), len(extraction.Skipped))
		logger.Warn("no records generated", slog.Int("skipped", len(extraction.Skipped)))
		return res
	}

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	if !e.dryRun {
		if err := sheet.WriteRecords(res.Output, extraction.Records); err != nil {
			res.Err = err
			logger.Warn("failed to write output", slog.String("error", err.Error()))
			return res
		}
	}

	logger.Info("workbook processed",
		slog.String("output", res.Output),
		slog.Int("records", len(extraction.Records)),
		slog.Int("skipped", len(extraction.Skipped)))
	return res
}

func (e *Engine) recordFile(ctx context.Context, runID string, res *FileResult) {
	outcome := &state.FileOutcome{
		RunID:     runID,
		InputPath: res.Input,
		Status:    state.FileStatusSuccess,
		Skipped:   res.Skipped(),
	}
	var records []sheet.Record
	if res.OK() {
		records = res.Records()
		outcome.OutputPath = res.Output
		outcome.Records = len(records)
	} else {
		outcome.Status = state.FileStatusFailed
		outcome.Error = res.Err.Error()
	}

	if err := e.store.RecordFile(context.WithoutCancel(ctx), outcome, records); err != nil {
		e.logger.Warn("failed to record file", slog.String("input", res.Input), slog.String("error", err.Error()))
	}
}
