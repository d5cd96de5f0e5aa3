package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Source = "products.csv"
	cfg.PublicBaseURL = "https://www.example.com/sitemaps"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "empty source",
			mutate: func(cfg *Config) {
				cfg.Source = ""
			},
			wantErr: "source",
		},
		{
			name: "empty public base url",
			mutate: func(cfg *Config) {
				cfg.PublicBaseURL = ""
			},
			wantErr: "public base URL",
		},
		{
			name: "public base url without host",
			mutate: func(cfg *Config) {
				cfg.PublicBaseURL = "https://"
			},
			wantErr: "public base URL",
		},
		{
			name: "zero per-file limit",
			mutate: func(cfg *Config) {
				cfg.PerFile = 0
			},
			wantErr: "per-file",
		},
		{
			name: "negative per-file limit",
			mutate: func(cfg *Config) {
				cfg.PerFile = -1
			},
			wantErr: "per-file",
		},
		{
			name: "zero chunk size",
			mutate: func(cfg *Config) {
				cfg.ChunkSize = 0
			},
			wantErr: "chunk size",
		},
		{
			name: "unknown query policy",
			mutate: func(cfg *Config) {
				cfg.QueryPolicy = "maybe"
			},
			wantErr: "query policy",
		},
		{
			name: "canonical host with scheme",
			mutate: func(cfg *Config) {
				cfg.CanonicalHost = "https://www.example.com"
			},
			wantErr: "canonical host",
		},
		{
			name: "empty link column",
			mutate: func(cfg *Config) {
				cfg.LinkColumn = ""
			},
			wantErr: "link column",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigValidateAccepts(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config with required fields should validate, got %v", err)
	}

	cfg.CanonicalHost = "www.example.com"
	cfg.QueryPolicy = "drop"
	cfg.PerFile = ProtocolURLLimit + 1 // allowed, only warned about
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config should validate, got %v", err)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("SITEMAPGEN_TEST_INT", "1234")
	value, ok, err := EnvInt("SITEMAPGEN_TEST_INT")
	if err != nil || !ok || value != 1234 {
		t.Fatalf("EnvInt = (%d, %v, %v), want (1234, true, nil)", value, ok, err)
	}

	if _, ok, err := EnvInt("SITEMAPGEN_TEST_INT_UNSET"); ok || err != nil {
		t.Fatalf("unset variable should report ok=false, got ok=%v err=%v", ok, err)
	}

	t.Setenv("SITEMAPGEN_TEST_INT", "not-a-number")
	if _, _, err := EnvInt("SITEMAPGEN_TEST_INT"); err == nil {
		t.Fatal("expected parse error for non-numeric value")
	}
}

func TestEnvString(t *testing.T) {
	t.Setenv("SITEMAPGEN_TEST_STR", "hello")
	value, ok := EnvString("SITEMAPGEN_TEST_STR")
	if !ok || value != "hello" {
		t.Fatalf("EnvString = (%q, %v), want (hello, true)", value, ok)
	}
	if _, ok := EnvString("SITEMAPGEN_TEST_STR_UNSET"); ok {
		t.Fatal("unset variable should report ok=false")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sitemapgen.yaml")
	content := `source: exports/products.csv
public_base_url: https://www.example.com/sitemaps
per_file: 10000
query_policy: drop
gzip: true
timeout: 5s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Source != "exports/products.csv" {
		t.Fatalf("source = %q", cfg.Source)
	}
	if cfg.PerFile != 10000 {
		t.Fatalf("per_file = %d, want 10000", cfg.PerFile)
	}
	if cfg.QueryPolicy != "drop" {
		t.Fatalf("query_policy = %q, want drop", cfg.QueryPolicy)
	}
	if !cfg.Gzip {
		t.Fatal("gzip should be true")
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("timeout = %v, want 5s", cfg.Timeout)
	}

	// Keys absent from the file keep their defaults.
	if cfg.LinkColumn != "link" {
		t.Fatalf("link_column = %q, want default link", cfg.LinkColumn)
	}
	if cfg.IndexName != "sitemap-index.xml" {
		t.Fatalf("index_name = %q, want default", cfg.IndexName)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("timeout: [nope"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
