// Package config provides shared configuration types for leapdetail.
// This package is decoupled from CLI concerns so the field mapping can be
// loaded by any front end.
package config

// MappingFile is the on-disk layout of a standalone field mapping file.
//
//	tables:
//	  TABLE_GL:
//	    - A.DATE
//	    - A.BALANCE
type MappingFile struct {
	Tables map[string][]string `yaml:"tables"`
}

// MappingSource describes where the effective field mapping came from.
type MappingSource string

// Mapping sources.
const (
	MappingSourceBuiltin MappingSource = "built-in"
	MappingSourceConfig  MappingSource = "config"
	MappingSourceFile    MappingSource = "file"
	MappingSourceMerged  MappingSource = "file+config"
)

// ColumnsConfig selects spreadsheet columns. Empty values enable detection.
type ColumnsConfig struct {
	// SQL lists SQL columns by header name or 1-based index.
	SQL []string `koanf:"sql"`
	// Code is the label column holding the indicator code.
	Code string `koanf:"code"`
	// Name is the label column holding the indicator name.
	Name string `koanf:"name"`

	CodeKeywords []string `koanf:"code_keywords"`
	NameKeywords []string `koanf:"name_keywords"`
}
