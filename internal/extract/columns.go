package extract

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"

	"github.com/leapstack-labs/leapdetail/internal/sheet"
)

// DetectSQLColumns returns the indices of every column in which at least one
// cell mentions the marker.
func DetectSQLColumns(tbl *sheet.Table, marker Marker) []int {
	var cols []int
	for col := range tbl.Headers {
		for row := range tbl.Rows {
			if marker.Contains(tbl.Cell(row, col)) {
				cols = append(cols, col)
				break
			}
		}
	}
	return cols
}

// SelectColumns resolves column specs given by header name or 1-based index.
// Duplicates are dropped; unknown specs are an error.
func SelectColumns(tbl *sheet.Table, specs []string) ([]int, error) {
	var (
		cols    []int
		unknown []string
		seen    = make(map[int]bool, len(specs))
	)
	for _, spec := range specs {
		col, ok := resolveColumn(tbl, spec)
		if !ok {
			unknown = append(unknown, spec)
			continue
		}
		if !seen[col] {
			seen[col] = true
			cols = append(cols, col)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown column(s) %s; available: %s",
			strings.Join(unknown, ", "), strings.Join(tbl.Headers, ", "))
	}
	return cols, nil
}

func resolveColumn(tbl *sheet.Table, spec string) (int, bool) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, false
	}
	if col := tbl.ColumnIndex(spec); col >= 0 {
		return col, true
	}
	if n, err := strconv.Atoi(spec); err == nil && n >= 1 && n <= len(tbl.Headers) {
		return n - 1, true
	}
	return 0, false
}

// LabelColumns holds the indices of the code and name columns. A negative
// index means the column is absent.
type LabelColumns struct {
	Code int
	Name int
}

// DetectLabelColumns picks the first header containing a code keyword and
// the first header containing a name keyword. Matching folds case and
// full-width characters. The same header may serve as both. Without a match
// the code column is the first column and the name column the second.
func DetectLabelColumns(headers, codeKeywords, nameKeywords []string) LabelColumns {
	labels := LabelColumns{Code: -1, Name: -1}
	codeKW := foldAll(codeKeywords)
	nameKW := foldAll(nameKeywords)

	for i, h := range headers {
		folded := fold(h)
		if labels.Code < 0 && containsAny(folded, codeKW) {
			labels.Code = i
		}
		if labels.Name < 0 && containsAny(folded, nameKW) {
			labels.Name = i
		}
	}

	if labels.Code < 0 && len(headers) > 0 {
		labels.Code = 0
	}
	if labels.Name < 0 && len(headers) > 1 {
		labels.Name = 1
	}
	return labels
}

// fold builds a new Caser per call; Casers are stateful.
func fold(s string) string {
	return cases.Fold().String(width.Fold.String(strings.TrimSpace(s)))
}

func foldAll(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if f := fold(kw); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
