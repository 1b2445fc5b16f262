// Package config provides configuration management for the leapdetail CLI.
//
// Configuration is layered: built-in defaults, then leapdetail.yaml, then
// LEAPDETAIL_* environment variables, then explicitly set flags.
package config

import (
	sharedcfg "github.com/leapstack-labs/leapdetail/internal/config"
	"github.com/leapstack-labs/leapdetail/pkg/detail"
)

// ColumnsConfig is an alias for the shared column selection configuration.
type ColumnsConfig = sharedcfg.ColumnsConfig

// Config holds all CLI configuration options.
type Config struct {
	// MappingFile is an optional standalone YAML file with a tables: section.
	MappingFile string `koanf:"mapping_file"`
	// Tables maps table keys to detail fields. Entries override MappingFile.
	Tables map[string][]string `koanf:"tables"`

	Marker       string `koanf:"marker"`
	OutputSuffix string `koanf:"output_suffix"`
	OutputDir    string `koanf:"output_dir"`
	// StatePath is the run history database. Empty disables history.
	StatePath string `koanf:"state_path"`
	Workers   int    `koanf:"workers"`

	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`
	LogLevel     string `koanf:"log_level"`
	LogFormat    string `koanf:"log_format"`

	Columns ColumnsConfig `koanf:"columns"`

	// ConfigDir is the directory of the config file in use, if any.
	ConfigDir string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultMarker       = sharedcfg.DefaultMarker
	DefaultOutputSuffix = sharedcfg.DefaultOutputSuffix
	DefaultStateFile    = sharedcfg.DefaultStateFile
	DefaultWorkers      = sharedcfg.DefaultWorkers
	DefaultOutput       = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel     = "warn"
	DefaultLogFormat    = "text"
)

// Mapping builds the field mapping described by the configuration.
func (c *Config) Mapping() (detail.Mapping, sharedcfg.MappingSource, error) {
	return sharedcfg.BuildMapping(c.Tables, c.MappingFile)
}
