package sheet

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Output column headers of a detail workbook.
const (
	HeaderCode      = "指标编号"
	HeaderName      = "指标名称"
	HeaderOriginal  = "Original_SQL"
	HeaderDetail    = "Detail_SQL"
	HeaderFromInner = "FROM_Inner"
)

const outputSheet = "Sheet1"

// Record is one row of a detail workbook.
type Record struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	OriginalSQL string `json:"original_sql"`
	DetailSQL   string `json:"detail_sql"`
	FromInner   string `json:"from_inner"`
}

// Headers returns the header row of a detail workbook.
func Headers() []string {
	return []string{HeaderCode, HeaderName, HeaderOriginal, HeaderDetail, HeaderFromInner}
}

// WriteRecords writes records to a new xlsx workbook at path, replacing any
// existing file.
func WriteRecords(path string, records []Record) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := writeRow(f, 1, Headers()); err != nil {
		return err
	}
	for i, rec := range records {
		row := []string{rec.Code, rec.Name, rec.OriginalSQL, rec.DetailSQL, rec.FromInner}
		if err := writeRow(f, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(outputSheet, "A", "B", 18); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(outputSheet, "C", "E", 60); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(outputSheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
