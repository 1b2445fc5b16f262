package state

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapdetail/internal/sheet"
)

// RecordFile stores the outcome of one workbook and the records written for
// it in a single transaction. Empty ID and ProcessedAt fields are filled in.
func (s *SQLiteStore) RecordFile(ctx context.Context, outcome *FileOutcome, records []sheet.Record) error {
	if s.db == nil {
		return ErrNotOpened
	}
	if outcome.ID == "" {
		outcome.ID = generateID()
	}
	if outcome.ProcessedAt.IsZero() {
		outcome.ProcessedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO run_files (id, run_id, input_path, output_path, status, records, skipped, error, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		outcome.ID, outcome.RunID, outcome.InputPath, nullString(outcome.OutputPath),
		string(outcome.Status), outcome.Records, outcome.Skipped, nullString(outcome.Error),
		toMillis(outcome.ProcessedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record file %s: %w", outcome.InputPath, err)
	}

	if len(records) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO detail_records (file_id, position, code, name, original_sql, detail_sql, from_inner)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare record insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, rec := range records {
			if _, err := stmt.ExecContext(ctx, outcome.ID, i, rec.Code, rec.Name,
				rec.OriginalSQL, rec.DetailSQL, rec.FromInner); err != nil {
				return fmt.Errorf("failed to record %s: %w", rec.Code, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit file %s: %w", outcome.InputPath, err)
	}

	s.logger.Debug("file recorded",
		slog.String("run_id", outcome.RunID),
		slog.String("input", outcome.InputPath),
		slog.Int("records", len(records)))
	return nil
}

// ListFiles returns the files of a run in the order they were recorded.
func (s *SQLiteStore) ListFiles(ctx context.Context, runID string) ([]*FileOutcome, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, input_path, COALESCE(output_path, ''), status, records, skipped, COALESCE(error, ''), processed_at
		 FROM run_files WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var files []*FileOutcome
	for rows.Next() {
		var (
			f           FileOutcome
			status      string
			processedAt int64
		)
		if err := rows.Scan(&f.ID, &f.RunID, &f.InputPath, &f.OutputPath, &status,
			&f.Records, &f.Skipped, &f.Error, &processedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		f.Status = FileStatus(status)
		f.ProcessedAt = fromMillis(processedAt)
		files = append(files, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

// ListRecords returns the detail records written for a file.
func (s *SQLiteStore) ListRecords(ctx context.Context, fileID string) ([]sheet.Record, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT code, name, original_sql, detail_sql, from_inner
		 FROM detail_records WHERE file_id = ? ORDER BY position`, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []sheet.Record
	for rows.Next() {
		var r sheet.Record
		if err := rows.Scan(&r.Code, &r.Name, &r.OriginalSQL, &r.DetailSQL, &r.FromInner); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}
