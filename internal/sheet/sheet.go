// Package sheet reads report workbooks into plain string tables and writes
// detail workbooks.
package sheet

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrUnsupportedFormat is returned for files that are neither xlsx nor csv.
var ErrUnsupportedFormat = errors.New("unsupported workbook format")

// Table is the first worksheet of a workbook. The first row is used as the
// header row; every data row is padded to the header width.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// Cell returns the trimmed value at row, col or "" when out of range.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// ColumnIndex returns the index of the header named name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Read loads path based on its extension.
func Read(path string) (*Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	case ".csv":
		return readCSV(path)
	case ".xls":
		return nil, fmt.Errorf("%w: %s (legacy .xls; save the workbook as .xlsx)", ErrUnsupportedFormat, path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// IsWorkbook reports whether path has an extension Read accepts.
func IsWorkbook(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".csv":
		return !strings.HasPrefix(filepath.Base(path), "~$")
	default:
		return false
	}
}

// newTable builds a Table from raw rows, the first of which is the header.
func newTable(name string, raw [][]string) *Table {
	t := &Table{Name: name}
	if len(raw) == 0 {
		return t
	}

	width := 0
	for _, r := range raw {
		width = max(width, len(r))
	}

	t.Headers = uniqueHeaders(pad(raw[0], width))
	for _, r := range raw[1:] {
		t.Rows = append(t.Rows, pad(r, width))
	}
	return t
}

// uniqueHeaders names empty headers "Unnamed: <i>" and suffixes repeated
// headers with the lowest unused ".<n>" so every column can be addressed by
// name.
func uniqueHeaders(headers []string) []string {
	out := make([]string, len(headers))
	used := make(map[string]bool, len(headers))
	next := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		if used[name] {
			n := next[h]
			for used[name] {
				n++
				name = h + "." + strconv.Itoa(n)
			}
			next[h] = n
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func pad(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}
