package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdetail/internal/config"
	"github.com/leapstack-labs/leapdetail/internal/sheet"
	"github.com/leapstack-labs/leapdetail/internal/state"
	"github.com/leapstack-labs/leapdetail/internal/testutil"
	"github.com/leapstack-labs/leapdetail/pkg/detail"
)

const reportCSV = "项次,项目,本期\n" +
	"1,存款,1#sqlValue('SELECT SUM(A.BALANCE) FROM TABLE_GL A GROUP BY A.ORG')\n" +
	"2,贷款,1#sqlValue('SELECT COUNT(1) FROM TABLE_ACCOUNT A')\n" +
	"3,其他,1#sqlValue('SELECT 1')\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestEngine(t *testing.T, mutate func(*Config)) *Engine {
	t.Helper()
	m, err := detail.NewMapping(config.DefaultTables())
	require.NoError(t, err)

	cfg := Config{
		Transformer:  detail.New(m),
		OutputSuffix: config.DefaultOutputSuffix,
		Workers:      2,
		Logger:       testutil.NewTestLogger(t),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func TestEngine_Run(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	good := writeFile(t, dir, "report.csv", reportCSV)
	noMarker := writeFile(t, dir, "plain.csv", "a,b\n1,SELECT 1 FROM T X\n")
	legacy := writeFile(t, dir, "legacy.xls", "binary")

	store, err := state.OpenStore(ctx, ":memory:", testutil.NewTestLogger(t))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	e := newTestEngine(t, func(c *Config) { c.Store = store })

	summary, err := e.Run(ctx, []string{good, noMarker, legacy})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 2, summary.Records)
	assert.Equal(t, 1, summary.Skipped)
	assert.NotEmpty(t, summary.RunID)
	require.Len(t, summary.Files, 3)

	first := summary.Files[0]
	assert.True(t, first.OK())
	assert.Equal(t, filepath.Join(dir, "report_明细双输出.xlsx"), first.Output)
	assert.ErrorIs(t, summary.Files[1].Err, ErrNoSQLColumns)
	assert.ErrorIs(t, summary.Files[2].Err, sheet.ErrUnsupportedFormat)

	out, err := sheet.Read(first.Output)
	require.NoError(t, err)
	assert.Equal(t, sheet.Headers(), out.Headers)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, []string{
		"1_1",
		"存款",
		"SELECT SUM(A.BALANCE) FROM TABLE_GL A GROUP BY A.ORG",
		"SELECT A.DATE, A.ORG, A.ITEM_NO, A.ITEM_NAME, A.CCY, A.BALANCE FROM TABLE_GL A",
		"TABLE_GL A",
	}, out.Rows[0])
	assert.Equal(t, "2_1", out.Rows[1][0])

	run, err := store.GetRun(ctx, summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, state.RunStatusFailed, run.Status)
	assert.Equal(t, 3, run.Inputs)
	assert.Equal(t, 1, run.Succeeded)
	assert.Equal(t, 2, run.Failed)

	files, err := store.ListFiles(ctx, summary.RunID)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, state.FileStatusSuccess, files[0].Status)
	assert.Equal(t, 2, files[0].Records)
	assert.Equal(t, state.FileStatusFailed, files[1].Status)
	assert.Contains(t, files[1].Error, "no SQL columns found")

	records, err := store.ListRecords(ctx, files[0].ID)
	require.NoError(t, err)
	assert.Equal(t, first.Records(), records)
}

func TestEngine_DryRun(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "report.csv", reportCSV)

	store := &fakeStore{}
	e := newTestEngine(t, func(c *Config) {
		c.DryRun = true
		c.Store = store
	})

	summary, err := e.Run(context.Background(), []string{input})
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Empty(t, summary.RunID)
	assert.NoFileExists(t, summary.Files[0].Output)
	assert.Zero(t, store.created, "dry runs are not recorded")
}

func TestEngine_OutputDir(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	input := writeFile(t, dir, "report.csv", reportCSV)

	e := newTestEngine(t, func(c *Config) {
		c.OutputDir = outDir
		c.OutputSuffix = ""
	})

	res := e.ProcessFile(context.Background(), input)
	require.NoError(t, res.Err)
	assert.Equal(t, filepath.Join(outDir, "report.xlsx"), res.Output)
	assert.FileExists(t, res.Output)
}

func TestEngine_ProcessFile_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("no rewritable SQL", func(t *testing.T) {
		input := writeFile(t, dir, "broken.csv", "code,sql\n1,1#sqlValue('SELECT 1')\n")
		res := newTestEngine(t, nil).ProcessFile(context.Background(), input)
		assert.ErrorIs(t, res.Err, ErrNoRecords)
		assert.Equal(t, 1, res.Skipped())
		assert.NoFileExists(t, res.Output)
	})

	t.Run("output would overwrite input", func(t *testing.T) {
		input := writeFile(t, dir, "same.xlsx", "")
		e := newTestEngine(t, func(c *Config) {
			c.OutputDir = dir
			c.OutputSuffix = ""
		})
		res := e.ProcessFile(context.Background(), input)
		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "would overwrite")
	})

	t.Run("missing file", func(t *testing.T) {
		res := newTestEngine(t, nil).ProcessFile(context.Background(), filepath.Join(dir, "missing.csv"))
		assert.Error(t, res.Err)
		assert.Nil(t, res.Records())
	})
}

func TestEngine_Run_OutputConflicts(t *testing.T) {
	oneRecord := "项次,项目,本期\n9,其他,1#sqlValue('SELECT COUNT(1) FROM TABLE_ACCOUNT A')\n"

	tests := []struct {
		name   string
		inputs func(t *testing.T, dir string) []string
		outDir func(dir string) string
		output func(dir string) string
	}{
		{
			name: "same stem in one folder",
			inputs: func(t *testing.T, dir string) []string {
				return []string{
					writeFile(t, dir, "report.csv", reportCSV),
					writeFile(t, dir, "report.xlsx", ""),
				}
			},
			outDir: func(string) string { return "" },
			output: func(dir string) string { return filepath.Join(dir, "report_明细双输出.xlsx") },
		},
		{
			name: "same name from two folders into one output dir",
			inputs: func(t *testing.T, dir string) []string {
				a, b := filepath.Join(dir, "a"), filepath.Join(dir, "b")
				require.NoError(t, os.Mkdir(a, 0o750))
				require.NoError(t, os.Mkdir(b, 0o750))
				return []string{
					writeFile(t, a, "report.csv", reportCSV),
					writeFile(t, b, "report.csv", oneRecord),
				}
			},
			outDir: func(dir string) string { return filepath.Join(dir, "out") },
			output: func(dir string) string { return filepath.Join(dir, "out", "report_明细双输出.xlsx") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			inputs := tt.inputs(t, dir)
			e := newTestEngine(t, func(c *Config) { c.OutputDir = tt.outDir(dir) })

			summary, err := e.Run(context.Background(), inputs)
			require.NoError(t, err)

			assert.Equal(t, 1, summary.Succeeded)
			assert.Equal(t, 1, summary.Failed)
			assert.Equal(t, 2, summary.Records)
			require.Len(t, summary.Files, 2)
			assert.True(t, summary.Files[0].OK())
			assert.ErrorIs(t, summary.Files[1].Err, ErrOutputConflict)
			assert.Contains(t, summary.Files[1].Err.Error(), inputs[0])

			out, err := sheet.Read(tt.output(dir))
			require.NoError(t, err)
			assert.Len(t, out.Rows, 2)
		})
	}
}

func TestEngine_Run_Cancelled(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "report.csv", reportCSV)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := newTestEngine(t, nil).Run(ctx, []string{input})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.Failed)
	assert.NoFileExists(t, filepath.Join(dir, "report_明细双输出.xlsx"))
}

func TestEngine_Run_StoreErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "report.csv", reportCSV)

	t.Run("create run", func(t *testing.T) {
		e := newTestEngine(t, func(c *Config) { c.Store = &fakeStore{createErr: errors.New("locked")} })
		_, err := e.Run(context.Background(), []string{input})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create run")
	})

	t.Run("record failures are not fatal", func(t *testing.T) {
		store := &fakeStore{recordErr: errors.New("disk full")}
		logger, logs := testutil.NewCaptureLogger(t)
		e := newTestEngine(t, func(c *Config) {
			c.Store = store
			c.Logger = logger
		})
		summary, err := e.Run(context.Background(), []string{input})
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Succeeded)
		assert.Equal(t, state.RunStatusCompleted, store.status)
		assert.True(t, logs.Contains("failed to record file"))
		assert.True(t, logs.Contains("disk full"))
	})
}

func TestEngine_Discover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.xlsx", "")
	writeFile(t, dir, "a.csv", "")
	writeFile(t, dir, "a_明细双输出.xlsx", "")
	writeFile(t, dir, "~$b.xlsx", "")
	writeFile(t, dir, "notes.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.xlsx"), 0o750))

	e := newTestEngine(t, nil)

	found, err := e.Discover([]string{dir, filepath.Join(dir, "a.csv")})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.xlsx")}, found)

	_, err = e.Discover([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)

	assert.True(t, e.IsOutput("x_明细双输出.xlsx"))
	assert.False(t, e.Accepts("x_明细双输出.xlsx"))
	assert.True(t, e.Accepts("report.xlsm"))
}

type fakeStore struct {
	createErr error
	recordErr error
	created   int
	status    state.RunStatus
}

func (s *fakeStore) CreateRun(_ context.Context, inputs int) (*state.Run, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created++
	return &state.Run{ID: "run-1", Status: state.RunStatusRunning, Inputs: inputs}, nil
}

func (s *fakeStore) RecordFile(context.Context, *state.FileOutcome, []sheet.Record) error {
	return s.recordErr
}

func (s *fakeStore) CompleteRun(_ context.Context, _ string, status state.RunStatus, _, _ int, _ string) error {
	s.status = status
	return nil
}
