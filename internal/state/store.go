// Package state records generation runs in SQLite so earlier outputs can be
// listed and audited.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/leapstack-labs/leapdetail/internal/sheet"
)

// ErrNotOpened is returned when the store is used before Open.
var ErrNotOpened = errors.New("database not opened")

// RunStatus represents the status of a generation run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// FileStatus represents the outcome of one workbook.
type FileStatus string

// File statuses.
const (
	FileStatusSuccess FileStatus = "success"
	FileStatusFailed  FileStatus = "failed"
)

// Run is one invocation of the generator over a set of workbooks.
type Run struct {
	ID          string     `json:"id"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Inputs      int        `json:"inputs"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
	Error       string     `json:"error,omitempty"`
}

// FileOutcome is the recorded result of one workbook within a run.
type FileOutcome struct {
	ID          string     `json:"id"`
	RunID       string     `json:"run_id"`
	InputPath   string     `json:"input_path"`
	OutputPath  string     `json:"output_path,omitempty"`
	Status      FileStatus `json:"status"`
	Records     int        `json:"records"`
	Skipped     int        `json:"skipped"`
	Error       string     `json:"error,omitempty"`
	ProcessedAt time.Time  `json:"processed_at"`
}

// Store is the write side used while generating.
type Store interface {
	CreateRun(ctx context.Context, inputs int) (*Run, error)
	RecordFile(ctx context.Context, outcome *FileOutcome, records []sheet.Record) error
	CompleteRun(ctx context.Context, id string, status RunStatus, succeeded, failed int, errMsg string) error
}
