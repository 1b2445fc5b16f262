package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdetail/internal/sheet"
	"github.com/leapstack-labs/leapdetail/internal/testutil"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenStore(context.Background(), memoryPath, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Migrate(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	version, err := store.MigrationVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	for _, table := range []string{"runs", "run_files", "detail_records"} {
		rows, err := store.db.QueryContext(ctx, "SELECT 1 FROM "+table+" LIMIT 1")
		require.NoError(t, err, "table %s should exist", table)
		require.NoError(t, rows.Close())
	}

	require.NoError(t, store.Migrate(ctx), "migrating twice is a no-op")
}

func TestSQLiteStore_OpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	store, err := OpenStore(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, store.Path())
	require.NoError(t, store.Close())

	store, err = OpenStore(context.Background(), path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	run, err := store.CreateRun(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.NotEmpty(t, run.ID)

	records := []sheet.Record{
		{Code: "1_1", Name: "存款", OriginalSQL: "SELECT SUM(A.BALANCE) FROM TABLE_GL A", DetailSQL: "SELECT A.DATE FROM TABLE_GL A", FromInner: "TABLE_GL A"},
		{Code: "2_1", Name: "贷款", OriginalSQL: "SELECT COUNT(1) FROM T X", DetailSQL: "SELECT * FROM T X", FromInner: "T X"},
	}
	ok := &FileOutcome{
		RunID:      run.ID,
		InputPath:  "/reports/a.xlsx",
		OutputPath: "/reports/a_明细双输出.xlsx",
		Status:     FileStatusSuccess,
		Records:    len(records),
		Skipped:    1,
	}
	require.NoError(t, store.RecordFile(ctx, ok, records))
	assert.NotEmpty(t, ok.ID)
	assert.False(t, ok.ProcessedAt.IsZero())

	failed := &FileOutcome{
		RunID:     run.ID,
		InputPath: "/reports/b.xlsx",
		Status:    FileStatusFailed,
		Error:     "no SQL columns found",
	}
	require.NoError(t, store.RecordFile(ctx, failed, nil))

	require.NoError(t, store.CompleteRun(ctx, run.ID, RunStatusCompleted, 1, 1, ""))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, got.Status)
	assert.Equal(t, 2, got.Inputs)
	assert.Equal(t, 1, got.Succeeded)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, run.StartedAt, got.StartedAt)
	require.NotNil(t, got.CompletedAt)
	assert.Empty(t, got.Error)

	files, err := store.ListFiles(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "/reports/a.xlsx", files[0].InputPath)
	assert.Equal(t, FileStatusSuccess, files[0].Status)
	assert.Equal(t, 2, files[0].Records)
	assert.Equal(t, 1, files[0].Skipped)
	assert.Equal(t, ok.ProcessedAt, files[0].ProcessedAt)
	assert.Equal(t, FileStatusFailed, files[1].Status)
	assert.Empty(t, files[1].OutputPath)
	assert.Equal(t, "no SQL columns found", files[1].Error)

	stored, err := store.ListRecords(ctx, ok.ID)
	require.NoError(t, err)
	assert.Equal(t, records, stored)

	none, err := store.ListRecords(ctx, failed.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := store.CreateRun(ctx, i)
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}
	require.NoError(t, store.CompleteRun(ctx, ids[1], RunStatusFailed, 0, 1, "boom"))

	all, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)
	assert.Equal(t, "boom", all[1].Error)
	assert.Equal(t, RunStatusFailed, all[1].Status)

	latest, err := store.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, ids[2], latest[0].ID)
}

func TestSQLiteStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	_, err := store.GetRun(ctx, "missing")
	assert.ErrorContains(t, err, "run not found")

	err = store.CompleteRun(ctx, "missing", RunStatusCompleted, 0, 0, "")
	assert.ErrorContains(t, err, "run not found")

	err = store.RecordFile(ctx, &FileOutcome{RunID: "missing", InputPath: "x.xlsx", Status: FileStatusFailed}, nil)
	assert.Error(t, err, "file rows reference an existing run")
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(nil)

	_, err := store.CreateRun(ctx, 1)
	assert.ErrorIs(t, err, ErrNotOpened)
	assert.ErrorIs(t, store.CompleteRun(ctx, "id", RunStatusCompleted, 0, 0, ""), ErrNotOpened)
	assert.ErrorIs(t, store.RecordFile(ctx, &FileOutcome{}, nil), ErrNotOpened)
	_, err = store.ListRuns(ctx, 10)
	assert.ErrorIs(t, err, ErrNotOpened)
	assert.ErrorIs(t, store.Migrate(ctx), ErrNotOpened)
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_DatabaseErrors(t *testing.T) {
	ctx := context.Background()
	errDisk := errors.New("disk I/O error")

	tests := []struct {
		name   string
		expect func(mock sqlmock.Sqlmock)
		call   func(s *SQLiteStore) error
		errSub string
	}{
		{
			name: "create run",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO runs").WillReturnError(errDisk)
			},
			call: func(s *SQLiteStore) error {
				_, err := s.CreateRun(ctx, 1)
				return err
			},
			errSub: "failed to create run",
		},
		{
			name: "record file rolls back",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO run_files").WillReturnError(errDisk)
				mock.ExpectRollback()
			},
			call: func(s *SQLiteStore) error {
				return s.RecordFile(ctx, &FileOutcome{RunID: "r", InputPath: "a.xlsx", Status: FileStatusSuccess}, nil)
			},
			errSub: "failed to record file a.xlsx",
		},
		{
			name: "record detail rows roll back",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO run_files").WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectPrepare("INSERT INTO detail_records").ExpectExec().WillReturnError(errDisk)
				mock.ExpectRollback()
			},
			call: func(s *SQLiteStore) error {
				return s.RecordFile(ctx, &FileOutcome{RunID: "r", InputPath: "a.xlsx", Status: FileStatusSuccess},
					[]sheet.Record{{Code: "1_1"}})
			},
			errSub: "failed to record 1_1",
		},
		{
			name: "list runs",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM runs").WillReturnError(errDisk)
			},
			call: func(s *SQLiteStore) error {
				_, err := s.ListRuns(ctx, 5)
				return err
			},
			errSub: "failed to list runs",
		},
		{
			name: "list files",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM run_files").WillReturnError(errDisk)
			},
			call: func(s *SQLiteStore) error {
				_, err := s.ListFiles(ctx, "r")
				return err
			},
			errSub: "failed to list files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			tt.expect(mock)

			store := NewSQLiteStore(testutil.NewTestLogger(t))
			store.OpenDB(db)

			err = tt.call(store)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSub)
			assert.ErrorIs(t, err, errDisk)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
