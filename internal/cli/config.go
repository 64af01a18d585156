package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read when --config is not given and the file exists
// in the working directory.
const DefaultConfigFile = "cpql.yaml"

// Config holds settings shared by every command. Flags override it.
type Config struct {
	// Dialect is the default target dialect.
	Dialect string `yaml:"dialect,omitempty"`

	// Schema is the metadata file or CUE directory.
	Schema string `yaml:"schema,omitempty"`

	// Catalog is the SQLite statement catalog path.
	Catalog string `yaml:"catalog,omitempty"`

	// CacheSize bounds the parsed-query cache. Zero means unbounded.
	CacheSize int `yaml:"cache_size,omitempty"`
}

// LoadConfig reads a YAML config file. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes config YAML.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.CacheSize < 0 {
		return nil, fmt.Errorf("parse config: cache_size must not be negative")
	}
	return &cfg, nil
}
