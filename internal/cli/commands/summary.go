package commands

import (
	"fmt"
	"path/filepath"

	"github.com/leapstack-labs/leapdetail/internal/cli/output"
	"github.com/leapstack-labs/leapdetail/internal/engine"
)

// maxListedFiles bounds the per-file lines of a summary.
const maxListedFiles = 30

type fileSummaryJSON struct {
	Input      string         `json:"input"`
	Output     string         `json:"output,omitempty"`
	Status     string         `json:"status"`
	Records    int            `json:"records"`
	Skipped    int            `json:"skipped"`
	SQLColumns []string       `json:"sql_columns,omitempty"`
	CodeColumn string         `json:"code_column,omitempty"`
	NameColumn string         `json:"name_column,omitempty"`
	Failures   map[string]int `json:"failures,omitempty"`
	Error      string         `json:"error,omitempty"`
}

type runSummaryJSON struct {
	RunID      string            `json:"run_id,omitempty"`
	DryRun     bool              `json:"dry_run"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
	Records    int               `json:"records"`
	Skipped    int               `json:"skipped"`
	DurationMS int64             `json:"duration_ms"`
	Files      []fileSummaryJSON `json:"files"`
}

func renderSummary(r *output.Renderer, s *engine.Summary) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(summaryJSON(s))
	case output.ModeMarkdown:
		summaryMarkdown(r, s)
	default:
		summaryText(r, s)
	}
	return nil
}

func summaryJSON(s *engine.Summary) runSummaryJSON {
	out := runSummaryJSON{
		RunID:      s.RunID,
		DryRun:     s.DryRun,
		Succeeded:  s.Succeeded,
		Failed:     s.Failed,
		Records:    s.Records,
		Skipped:    s.Skipped,
		DurationMS: s.Duration.Milliseconds(),
		Files:      make([]fileSummaryJSON, 0, len(s.Files)),
	}
	for _, f := range s.Files {
		fj := fileSummaryJSON{
			Input:   f.Input,
			Status:  "success",
			Records: len(f.Records()),
			Skipped: f.Skipped(),
		}
		if ex := f.Extraction; ex != nil {
			fj.SQLColumns = ex.SQLColumns
			fj.CodeColumn = ex.CodeColumn
			fj.NameColumn = ex.NameColumn
			if len(ex.Skipped) > 0 {
				fj.Failures = ex.FailureCounts()
			}
		}
		if f.OK() {
			fj.Output = f.Output
		} else {
			fj.Status = "failed"
			fj.Records = 0
			fj.Error = f.Err.Error()
		}
		out.Files = append(out.Files, fj)
	}
	return out
}

func fileDetail(f *engine.FileResult) string {
	if !f.OK() {
		return f.Err.Error()
	}
	detail := fmt.Sprintf("→ %s (%d records", filepath.Base(f.Output), len(f.Records()))
	if n := f.Skipped(); n > 0 {
		detail += fmt.Sprintf(", %d skipped", n)
	}
	return detail + ")"
}

func fileStatus(f *engine.FileResult) string {
	if f.OK() {
		return "success"
	}
	return "failed"
}

func summaryText(r *output.Renderer, s *engine.Summary) {
	for i, f := range s.Files {
		if i == maxListedFiles {
			r.Muted(fmt.Sprintf("... and %d more", len(s.Files)-maxListedFiles))
			break
		}
		r.StatusLine(filepath.Base(f.Input), fileStatus(f), fileDetail(f))
	}
	r.Println("")

	line := fmt.Sprintf("%d succeeded, %d failed, %d records", s.Succeeded, s.Failed, s.Records)
	if s.Skipped > 0 {
		line += fmt.Sprintf(", %d statements skipped", s.Skipped)
	}
	if s.Failed > 0 {
		r.Warning(line)
	} else {
		r.Success(line)
	}
	if s.DryRun {
		r.Muted("dry run: no files were written")
	}
	if s.RunID != "" {
		r.Muted("run " + s.RunID)
	}
}

func summaryMarkdown(r *output.Renderer, s *engine.Summary) {
	r.Println(output.FormatHeader(1, "Detail Generation"))
	r.Println("")
	r.Println(output.FormatKeyValue("Succeeded", fmt.Sprintf("%d", s.Succeeded)))
	r.Println(output.FormatKeyValue("Failed", fmt.Sprintf("%d", s.Failed)))
	r.Println(output.FormatKeyValue("Records", fmt.Sprintf("%d", s.Records)))
	r.Println(output.FormatKeyValue("Skipped statements", fmt.Sprintf("%d", s.Skipped)))
	if s.DryRun {
		r.Println(output.FormatKeyValue("Dry run", "true"))
	}
	if s.RunID != "" {
		r.Println(output.FormatKeyValue("Run", s.RunID))
	}
	r.Println("")
	r.Println(output.FormatHeader(2, "Files"))
	r.Println("")
	for i, f := range s.Files {
		if i == maxListedFiles {
			r.Printf("- ... and %d more\n", len(s.Files)-maxListedFiles)
			break
		}
		r.Printf("- %s `%s` %s\n", fileStatus(f), filepath.Base(f.Input), fileDetail(f))
	}
}
