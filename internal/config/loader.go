package config

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapdetail/pkg/detail"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "leapdetail.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "leapdetail.yml"

// FindConfigFile finds the config file in the given directory.
// Returns empty string if not found.
func FindConfigFile(dir string) string {
	yamlPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}

	ymlPath := filepath.Join(dir, ConfigFileNameAlt)
	if _, err := os.Stat(ymlPath); err == nil {
		return ymlPath
	}

	return ""
}

// LoadMappingFile reads a standalone mapping file. Unknown top-level keys are
// rejected so a typo cannot silently drop the whole mapping.
func LoadMappingFile(path string) (map[string][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping file: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var mf MappingFile
	if err := dec.Decode(&mf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("mapping file %s is empty", path)
		}
		return nil, fmt.Errorf("failed to parse mapping file %s: %w", path, err)
	}
	if len(mf.Tables) == 0 {
		return nil, fmt.Errorf("mapping file %s defines no tables", path)
	}

	return mf.Tables, nil
}

// BuildMapping assembles the effective field mapping. Tables from the
// mapping file are loaded first and inline tables override them key by key.
// When neither is set the built-in example mapping is used.
func BuildMapping(inline map[string][]string, mappingFile string) (detail.Mapping, MappingSource, error) {
	tables := make(map[string][]string)
	var source MappingSource

	if mappingFile != "" {
		fromFile, err := LoadMappingFile(mappingFile)
		if err != nil {
			return detail.Mapping{}, "", err
		}
		maps.Copy(tables, fromFile)
		source = MappingSourceFile
	}

	if len(inline) > 0 {
		overrideTables(tables, inline)
		if source == MappingSourceFile {
			source = MappingSourceMerged
		} else {
			source = MappingSourceConfig
		}
	}

	if source == "" {
		tables = DefaultTables()
		source = MappingSourceBuiltin
	}

	m, err := detail.NewMapping(tables)
	if err != nil {
		return detail.Mapping{}, "", fmt.Errorf("invalid field mapping: %w", err)
	}
	return m, source, nil
}

// overrideTables copies src into dst, first removing dst keys that name the
// same table as a src key in a different letter case.
func overrideTables(dst, src map[string][]string) {
	for key := range src {
		canonical := strings.ToUpper(strings.TrimSpace(key))
		for existing := range dst {
			if strings.ToUpper(strings.TrimSpace(existing)) == canonical {
				delete(dst, existing)
			}
		}
	}
	maps.Copy(dst, src)
}
