package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapdetail/internal/sheet"
)

// OutputPath returns the detail workbook path for input.
func (e *Engine) OutputPath(input string) string {
	dir := e.outputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, stem+e.outputSuffix+".xlsx")
}

// outputConflicts returns, by input index, an error for every input whose
// output path is already taken by an earlier input. report.csv and
// report.xlsx in one folder collide, as do same-named workbooks from
// different folders under one output directory.
func (e *Engine) outputConflicts(inputs []string) map[int]error {
	claimed := make(map[string]string, len(inputs))
	conflicts := make(map[int]error)
	for i, input := range inputs {
		out := filepath.Clean(e.OutputPath(input))
		if first, ok := claimed[out]; ok {
			conflicts[i] = fmt.Errorf("%w: %s is also the output of %s", ErrOutputConflict, out, first)
			continue
		}
		claimed[out] = input
	}
	return conflicts
}

// IsOutput reports whether path looks like a workbook this engine wrote.
func (e *Engine) IsOutput(path string) bool {
	if e.outputSuffix == "" {
		return false
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.HasSuffix(stem, e.outputSuffix)
}

// Accepts reports whether path is a report workbook the engine should
// process: a readable format that is not one of its own outputs.
func (e *Engine) Accepts(path string) bool {
	return sheet.IsWorkbook(path) && !e.IsOutput(path)
}

// Discover expands paths into report workbooks. Files are taken as given;
// directories contribute the workbooks directly inside them, sorted by name.
// Duplicates are dropped.
func (e *Engine) Discover(paths []string) ([]string, error) {
	var (
		found []string
		seen  = make(map[string]bool)
	)
	add := func(p string) {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if !seen[p] {
			seen[p] = true
			found = append(found, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", p, err)
		}
		for _, entry := range entries {
			if entry.Type().IsRegular() && e.Accepts(entry.Name()) {
				add(filepath.Join(p, entry.Name()))
			}
		}
	}
	return found, nil
}
