package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdetail/internal/config"
	"github.com/leapstack-labs/leapdetail/internal/sheet"
	"github.com/leapstack-labs/leapdetail/internal/testutil"
	"github.com/leapstack-labs/leapdetail/pkg/detail"
)

const (
	glDetail      = "SELECT A.DATE, A.ORG, A.ITEM_NO, A.ITEM_NAME, A.CCY, A.BALANCE FROM TABLE_GL A"
	accountDetail = "SELECT A.DATE, A.ORG, A.ITEM_NO, A.ACCT_NO, A.CUST_NO, B.CUST_NAME, A.CCY, A.BALANCE FROM TABLE_ACCOUNT A"
)

func newTestExtractor(t *testing.T, columns config.ColumnsConfig) *Extractor {
	t.Helper()
	m, err := detail.NewMapping(config.DefaultTables())
	require.NoError(t, err)
	e, err := New(Config{
		Transformer: detail.New(m),
		Columns:     columns,
		Logger:      testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	return e
}

func reportTable() *sheet.Table {
	return &sheet.Table{
		Name:    "Sheet1",
		Headers: []string{"项次", "项目", "本期", "上期"},
		Rows: [][]string{
			{"1", "存款", `1#sqlValue("SELECT SUM(A.BALANCE) FROM TABLE_GL A GROUP BY A.ORG")`, `1#sqlValue("SELECT COUNT(*) FROM (SELECT 1)")`},
			{"", "贷款", "plain text", `1#sqlValue("SELECT COUNT(1) FROM TABLE_ACCOUNT A")`},
			{"", "", "", ""},
		},
	}
}

func TestExtractor_Extract(t *testing.T) {
	e := newTestExtractor(t, config.ColumnsConfig{})

	out, err := e.Extract(reportTable())
	require.NoError(t, err)

	assert.Equal(t, []string{"本期", "上期"}, out.SQLColumns)
	assert.Equal(t, "项次", out.CodeColumn)
	assert.Equal(t, "项目", out.NameColumn)

	assert.Equal(t, []sheet.Record{
		{
			Code:        "1_1",
			Name:        "存款",
			OriginalSQL: "SELECT SUM(A.BALANCE) FROM TABLE_GL A GROUP BY A.ORG",
			DetailSQL:   glDetail,
			FromInner:   "TABLE_GL A",
		},
		{
			Code:        "ROW_2_2",
			Name:        "贷款",
			OriginalSQL: "SELECT COUNT(1) FROM TABLE_ACCOUNT A",
			DetailSQL:   accountDetail,
			FromInner:   "TABLE_ACCOUNT A",
		},
	}, out.Records)

	require.Len(t, out.Skipped, 1)
	skip := out.Skipped[0]
	assert.Equal(t, 1, skip.Row)
	assert.Equal(t, "上期", skip.Column)
	assert.Equal(t, "1_2", skip.Code)
	assert.Equal(t, detail.FailureUnresolvedTable, skip.Failure)
	assert.Equal(t, map[string]int{detail.FailureUnresolvedTable.String(): 1}, out.FailureCounts())
}

func TestExtractor_BlankStatementsNotSkipped(t *testing.T) {
	e := newTestExtractor(t, config.ColumnsConfig{})

	out, err := e.Extract(&sheet.Table{
		Name:    "Sheet1",
		Headers: []string{"项次", "项目", "本期"},
		Rows: [][]string{
			{"1", "存款", "see 1#sqlValue"},
			{"2", "贷款", "1#sqlValue()"},
			{"3", "其他", `1#sqlValue("  ")`},
			{"4", "合计", `1#sqlValue("SELECT SUM(A.BALANCE) FROM TABLE_GL A")`},
		},
	})
	require.NoError(t, err)

	require.Len(t, out.Records, 1)
	assert.Equal(t, "4_1", out.Records[0].Code)
	assert.Empty(t, out.Skipped)
	assert.Empty(t, out.FailureCounts())
}

func TestExtractor_ManualColumns(t *testing.T) {
	e := newTestExtractor(t, config.ColumnsConfig{SQL: []string{"4"}, Code: "项目", Name: "项次"})

	out, err := e.Extract(reportTable())
	require.NoError(t, err)

	assert.Equal(t, []string{"上期"}, out.SQLColumns)
	require.Len(t, out.Records, 1)
	assert.Equal(t, "贷款_1", out.Records[0].Code)
	assert.Equal(t, "", out.Records[0].Name)
}

func TestExtractor_Errors(t *testing.T) {
	t.Run("no marker cells", func(t *testing.T) {
		e := newTestExtractor(t, config.ColumnsConfig{})
		_, err := e.Extract(&sheet.Table{
			Headers: []string{"a", "b"},
			Rows:    [][]string{{"1", "SELECT 1 FROM T X"}},
		})
		require.ErrorIs(t, err, ErrNoSQLColumns)
		assert.Contains(t, err.Error(), "a, b")
	})

	t.Run("unknown sql column", func(t *testing.T) {
		e := newTestExtractor(t, config.ColumnsConfig{SQL: []string{"missing"}})
		_, err := e.Extract(reportTable())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing")
	})

	t.Run("unknown label column", func(t *testing.T) {
		e := newTestExtractor(t, config.ColumnsConfig{Name: "missing"})
		_, err := e.Extract(reportTable())
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown name column "missing"`)
	})

	t.Run("transformer required", func(t *testing.T) {
		_, err := New(Config{})
		require.Error(t, err)
	})
}
