package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config with optional fields so a config file can set
// only the keys it cares about. Timeout is a Go duration string ("30s").
type fileConfig struct {
	Source        *string `yaml:"source"`
	OutputDir     *string `yaml:"output_dir"`
	Basename      *string `yaml:"basename"`
	PerFile       *int    `yaml:"per_file"`
	PublicBaseURL *string `yaml:"public_base_url"`
	IndexName     *string `yaml:"index_name"`
	LinkColumn    *string `yaml:"link_column"`
	CanonicalHost *string `yaml:"canonical_host"`
	QueryPolicy   *string `yaml:"query_policy"`
	ChunkSize     *int    `yaml:"chunk_size"`
	Gzip          *bool   `yaml:"gzip"`
	Timeout       *string `yaml:"timeout"`
	UserAgent     *string `yaml:"user_agent"`
	Verbose       *bool   `yaml:"verbose"`
	MetricsAddr   *string `yaml:"metrics_addr"`
}

// LoadFile returns DefaultConfig overlaid with the keys present in the YAML
// file at path.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.ApplyFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyFile overlays the keys present in the YAML file at path onto c.
// Keys absent from the file leave the existing values untouched.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}

	if fc.Source != nil {
		c.Source = *fc.Source
	}
	if fc.OutputDir != nil {
		c.OutputDir = *fc.OutputDir
	}
	if fc.Basename != nil {
		c.Basename = *fc.Basename
	}
	if fc.PerFile != nil {
		c.PerFile = *fc.PerFile
	}
	if fc.PublicBaseURL != nil {
		c.PublicBaseURL = *fc.PublicBaseURL
	}
	if fc.IndexName != nil {
		c.IndexName = *fc.IndexName
	}
	if fc.LinkColumn != nil {
		c.LinkColumn = *fc.LinkColumn
	}
	if fc.CanonicalHost != nil {
		c.CanonicalHost = *fc.CanonicalHost
	}
	if fc.QueryPolicy != nil {
		c.QueryPolicy = *fc.QueryPolicy
	}
	if fc.ChunkSize != nil {
		c.ChunkSize = *fc.ChunkSize
	}
	if fc.Gzip != nil {
		c.Gzip = *fc.Gzip
	}
	if fc.Timeout != nil {
		timeout, err := time.ParseDuration(*fc.Timeout)
		if err != nil {
			return fmt.Errorf("parse config timeout: %w", err)
		}
		c.Timeout = timeout
	}
	if fc.UserAgent != nil {
		c.UserAgent = *fc.UserAgent
	}
	if fc.Verbose != nil {
		c.Verbose = *fc.Verbose
	}
	if fc.MetricsAddr != nil {
		c.MetricsAddr = *fc.MetricsAddr
	}

	return nil
}
