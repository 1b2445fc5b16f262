// Package extract pulls marker-wrapped SQL out of report tables and turns
// each statement into a detail record.
package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapdetail/internal/config"
	"github.com/leapstack-labs/leapdetail/internal/sheet"
	"github.com/leapstack-labs/leapdetail/pkg/detail"
)

// ErrNoSQLColumns is returned when no column holds marker-wrapped SQL and
// none was selected explicitly.
var ErrNoSQLColumns = errors.New("no SQL columns found")

// Config holds extractor settings.
type Config struct {
	Transformer *detail.Transformer
	Marker      string
	Columns     config.ColumnsConfig
	Logger      *slog.Logger
}

// Extractor turns report tables into detail records.
type Extractor struct {
	transformer *detail.Transformer
	marker      Marker
	columns     config.ColumnsConfig
	logger      *slog.Logger
}

// New creates an Extractor.
func New(cfg Config) (*Extractor, error) {
	if cfg.Transformer == nil {
		return nil, errors.New("extract: transformer is required")
	}
	if strings.TrimSpace(cfg.Marker) == "" {
		cfg.Marker = config.DefaultMarker
	}
	config.ApplyColumnDefaults(&cfg.Columns)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Extractor{
		transformer: cfg.Transformer,
		marker:      NewMarker(cfg.Marker),
		columns:     cfg.Columns,
		logger:      logger,
	}, nil
}

// Skip records a marker cell whose SQL could not be rewritten.
type Skip struct {
	Row     int            `json:"row"`
	Column  string         `json:"column"`
	Code    string         `json:"code"`
	SQL     string         `json:"sql"`
	Failure detail.Failure `json:"-"`
	Reason  string         `json:"reason"`
}

// Extraction is the outcome of extracting one table.
type Extraction struct {
	SQLColumns []string       `json:"sql_columns"`
	CodeColumn string         `json:"code_column,omitempty"`
	NameColumn string         `json:"name_column,omitempty"`
	Records    []sheet.Record `json:"records"`
	Skipped    []Skip         `json:"skipped,omitempty"`
}

// FailureCounts returns the number of skipped cells per failure reason.
func (e *Extraction) FailureCounts() map[string]int {
	counts := make(map[string]int, len(e.Skipped))
	for _, s := range e.Skipped {
		counts[s.Reason]++
	}
	return counts
}

// Extract rewrites every marker cell of tbl. Rows are numbered from 1,
// counting data rows below the header.
func (e *Extractor) Extract(tbl *sheet.Table) (*Extraction, error) {
	sqlCols, err := e.sqlColumns(tbl)
	if err != nil {
		return nil, err
	}
	labels, err := e.labelColumns(tbl)
	if err != nil {
		return nil, err
	}

	out := &Extraction{
		CodeColumn: header(tbl, labels.Code),
		NameColumn: header(tbl, labels.Name),
	}
	for _, col := range sqlCols {
		out.SQLColumns = append(out.SQLColumns, tbl.Headers[col])
	}

	e.logger.Debug("columns selected",
		slog.String("table", tbl.Name),
		slog.Any("sql_columns", out.SQLColumns),
		slog.String("code_column", out.CodeColumn),
		slog.String("name_column", out.NameColumn))

	for row := range tbl.Rows {
		code := tbl.Cell(row, labels.Code)
		if code == "" {
			code = fmt.Sprintf("ROW_%d", row+1)
		}
		name := tbl.Cell(row, labels.Name)

		for pos, col := range sqlCols {
			cell := tbl.Cell(row, col)
			if !e.marker.Contains(cell) {
				continue
			}
			sql, ok := e.marker.Unwrap(cell)
			if !ok {
				continue
			}
			recordCode := fmt.Sprintf("%s_%d", code, pos+1)

			res, failure := e.transformer.Explain(sql)
			if failure == detail.FailureBlank {
				continue
			}
			if !res.OK() {
				out.Skipped = append(out.Skipped, Skip{
					Row:     row + 1,
					Column:  tbl.Headers[col],
					Code:    recordCode,
					SQL:     sql,
					Failure: failure,
					Reason:  failure.String(),
				})
				e.logger.Debug("statement skipped",
					slog.String("code", recordCode),
					slog.String("reason", failure.String()),
					slog.String("class", failure.Class().String()))
				continue
			}

			out.Records = append(out.Records, sheet.Record{
				Code:        recordCode,
				Name:        name,
				OriginalSQL: sql,
				DetailSQL:   res.DetailSQL,
				FromInner:   res.FromInner,
			})
		}
	}
	return out, nil
}

func (e *Extractor) sqlColumns(tbl *sheet.Table) ([]int, error) {
	if len(e.columns.SQL) > 0 {
		return SelectColumns(tbl, e.columns.SQL)
	}
	cols := DetectSQLColumns(tbl, e.marker)
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: no cell contains %q; select columns with --sql-columns (available: %s)",
			ErrNoSQLColumns, e.marker.Name(), strings.Join(tbl.Headers, ", "))
	}
	return cols, nil
}

func (e *Extractor) labelColumns(tbl *sheet.Table) (LabelColumns, error) {
	labels := DetectLabelColumns(tbl.Headers, e.columns.CodeKeywords, e.columns.NameKeywords)
	if e.columns.Code != "" {
		col, ok := resolveColumn(tbl, e.columns.Code)
		if !ok {
			return labels, fmt.Errorf("unknown code column %q", e.columns.Code)
		}
		labels.Code = col
	}
	if e.columns.Name != "" {
		col, ok := resolveColumn(tbl, e.columns.Name)
		if !ok {
			return labels, fmt.Errorf("unknown name column %q", e.columns.Name)
		}
		labels.Name = col
	}
	return labels, nil
}

func header(tbl *sheet.Table, col int) string {
	if col < 0 || col >= len(tbl.Headers) {
		return ""
	}
	return tbl.Headers[col]
}
