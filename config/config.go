package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ProtocolURLLimit is the sitemaps.org cap on URLs per file. PerFile values
// above it are accepted but worth a warning at startup.
const ProtocolURLLimit = 50000

// Config holds generator configuration.
type Config struct {
	Source        string        `yaml:"source"`          // CSV path or http(s) URL
	OutputDir     string        `yaml:"output_dir"`
	Basename      string        `yaml:"basename"`        // part filename prefix
	PerFile       int           `yaml:"per_file"`        // max URLs per part
	PublicBaseURL string        `yaml:"public_base_url"` // base for index <loc> values
	IndexName     string        `yaml:"index_name"`
	LinkColumn    string        `yaml:"link_column"`
	CanonicalHost string        `yaml:"canonical_host"` // empty disables host/scheme rewriting
	QueryPolicy   string        `yaml:"query_policy"`   // keep or drop
	ChunkSize     int           `yaml:"chunk_size"`     // CSV rows read per chunk
	Gzip          bool          `yaml:"gzip"`
	Timeout       time.Duration `yaml:"timeout"` // HTTP source fetch timeout
	UserAgent     string        `yaml:"user_agent"`
	Verbose       bool          `yaml:"verbose"`
	MetricsAddr   string        `yaml:"metrics_addr"`
}

// DefaultConfig returns defaults matching the production catalog export job.
// Source and PublicBaseURL have no defaults and must always be supplied.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:   "./sitemaps_out",
		Basename:    "sitemap-products-",
		PerFile:     ProtocolURLLimit,
		IndexName:   "sitemap-index.xml",
		LinkColumn:  "link",
		QueryPolicy: "keep",
		ChunkSize:   200000,
		Timeout:     30 * time.Second,
		UserAgent:   "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("source cannot be empty")
	}

	if c.PublicBaseURL == "" {
		return fmt.Errorf("public base URL cannot be empty")
	}
	parsedURL, err := url.Parse(c.PublicBaseURL)
	if err != nil {
		return fmt.Errorf("invalid public base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("public base URL must include a host")
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if c.Basename == "" {
		return fmt.Errorf("basename cannot be empty")
	}
	if c.IndexName == "" {
		return fmt.Errorf("index name cannot be empty")
	}
	if c.LinkColumn == "" {
		return fmt.Errorf("link column cannot be empty")
	}
	if c.PerFile <= 0 {
		return fmt.Errorf("per-file limit must be positive")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive")
	}
	if c.QueryPolicy != "keep" && c.QueryPolicy != "drop" {
		return fmt.Errorf("query policy must be keep or drop")
	}
	if c.CanonicalHost != "" && strings.ContainsAny(c.CanonicalHost, "/:") {
		return fmt.Errorf("canonical host must be a bare hostname")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}
