package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdetail/internal/config"
	"github.com/leapstack-labs/leapdetail/internal/sheet"
)

func TestDetectSQLColumns(t *testing.T) {
	tbl := &sheet.Table{
		Headers: []string{"code", "a", "b", "c"},
		Rows: [][]string{
			{"1", "text", "", `1#sqlvalue("SELECT 1 FROM T X")`},
			{"2", `1#sqlValue("SELECT 2 FROM T X")`, "", ""},
		},
	}

	assert.Equal(t, []int{1, 3}, DetectSQLColumns(tbl, NewMarker(config.DefaultMarker)))
	assert.Empty(t, DetectSQLColumns(tbl, NewMarker("other#marker")))
}

func TestSelectColumns(t *testing.T) {
	tbl := &sheet.Table{Headers: []string{"code", "本期", "上期"}}

	t.Run("names and indices", func(t *testing.T) {
		cols, err := SelectColumns(tbl, []string{"上期", "2", " 3 "})
		require.NoError(t, err)
		assert.Equal(t, []int{2, 1}, cols)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := SelectColumns(tbl, []string{"本期", "9", "missing"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "9, missing")
		assert.Contains(t, err.Error(), "code, 本期, 上期")
	})
}

func TestDetectLabelColumns(t *testing.T) {
	code := config.DefaultCodeKeywords()
	name := config.DefaultNameKeywords()

	tests := []struct {
		name    string
		headers []string
		want    LabelColumns
	}{
		{
			name:    "chinese headers",
			headers: []string{"值", "项次", "指标名称"},
			want:    LabelColumns{Code: 1, Name: 2},
		},
		{
			name:    "one header serves both",
			headers: []string{"项目", "金额"},
			want:    LabelColumns{Code: 0, Name: 0},
		},
		{
			name:    "full-width latin",
			headers: []string{"Value", "ＣＯＤＥ", "Ｎａｍｅ"},
			want:    LabelColumns{Code: 1, Name: 2},
		},
		{
			name:    "fallback to first two columns",
			headers: []string{"x", "y", "z"},
			want:    LabelColumns{Code: 0, Name: 1},
		},
		{
			name:    "single column",
			headers: []string{"x"},
			want:    LabelColumns{Code: 0, Name: -1},
		},
		{
			name: "no columns",
			want: LabelColumns{Code: -1, Name: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLabelColumns(tt.headers, code, name))
		})
	}
}
