package feed

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func collect(t *testing.T, s *Scanner) []string {
	t.Helper()
	var urls []string
	for s.Scan() {
		urls = append(urls, s.URL())
	}
	if err := s.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return urls
}

func TestScannerYieldsColumnInOrder(t *testing.T) {
	path := writeCSV(t, "id,link,price\n"+
		"1,https://www.example.com/a,10\n"+
		"2,https://www.example.com/b,12\n"+
		"3,https://www.example.com/c,9\n")

	s, err := Open(context.Background(), path, Options{Column: "link", ChunkSize: 200000})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	urls := collect(t, s)
	want := []string{
		"https://www.example.com/a",
		"https://www.example.com/b",
		"https://www.example.com/c",
	}
	if len(urls) != len(want) {
		t.Fatalf("urls = %v", urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Fatalf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
	if s.Rows() != 3 {
		t.Fatalf("rows = %d, want 3", s.Rows())
	}
}

func TestScannerChunkBoundaries(t *testing.T) {
	var b strings.Builder
	b.WriteString("link\n")
	for i := 0; i < 7; i++ {
		b.WriteString("https://www.example.com/p\n")
	}
	path := writeCSV(t, b.String())

	// Chunk size smaller than the row count forces several refills.
	s, err := Open(context.Background(), path, Options{Column: "link", ChunkSize: 2})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if got := len(collect(t, s)); got != 7 {
		t.Fatalf("urls = %d, want 7", got)
	}
}

func TestScannerFiltersBlankValues(t *testing.T) {
	path := writeCSV(t, "link\n"+
		"  https://www.example.com/a  \n"+
		"\"\"\n"+
		"   \n"+
		"https://www.example.com/b\n")

	s, err := Open(context.Background(), path, Options{Column: "link", ChunkSize: 10})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	urls := collect(t, s)
	if len(urls) != 2 {
		t.Fatalf("urls = %v, want 2 entries", urls)
	}
	if urls[0] != "https://www.example.com/a" {
		t.Fatalf("whitespace not trimmed: %q", urls[0])
	}
	if s.Filtered() != 2 {
		t.Fatalf("filtered = %d, want 2", s.Filtered())
	}
}

func TestScannerShortRows(t *testing.T) {
	path := writeCSV(t, "id,link\n"+
		"1,https://www.example.com/a\n"+
		"2\n"+
		"3,https://www.example.com/b\n")

	s, err := Open(context.Background(), path, Options{Column: "link", ChunkSize: 10})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if got := len(collect(t, s)); got != 2 {
		t.Fatalf("urls = %d, want 2", got)
	}
}

func TestScannerAppliesNormalize(t *testing.T) {
	path := writeCSV(t, "link\nhttp://example.com/a\n")

	s, err := Open(context.Background(), path, Options{
		Column:    "link",
		ChunkSize: 10,
		Normalize: strings.ToUpper,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	urls := collect(t, s)
	if len(urls) != 1 || urls[0] != "HTTP://EXAMPLE.COM/A" {
		t.Fatalf("urls = %v", urls)
	}
}

func TestScannerColumnMissing(t *testing.T) {
	path := writeCSV(t, "id,url\n1,https://www.example.com/a\n")

	_, err := Open(context.Background(), path, Options{Column: "link", ChunkSize: 10})
	var missing ErrColumnMissing
	if !errors.As(err, &missing) {
		t.Fatalf("expected ErrColumnMissing, got %v", err)
	}
	if missing.Column != "link" {
		t.Fatalf("missing.Column = %q", missing.Column)
	}
}

func TestScannerSourceUnreadable(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), Options{Column: "link", ChunkSize: 10})
	var open ErrOpenSource
	if !errors.As(err, &open) {
		t.Fatalf("expected ErrOpenSource, got %v", err)
	}
}

func TestScannerHTTPSource(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, "https://exports.example.com/products.csv",
		httpmock.NewStringResponder(200, "link\nhttps://www.example.com/a\nhttps://www.example.com/b\n"))
	client := &http.Client{Transport: transport}

	s, err := Open(context.Background(), "https://exports.example.com/products.csv", Options{
		Column:     "link",
		ChunkSize:  10,
		HTTPClient: client,
		UserAgent:  "sitemapgen-test",
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if got := len(collect(t, s)); got != 2 {
		t.Fatalf("urls = %d, want 2", got)
	}
}

func TestScannerHTTPStatusError(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, "https://exports.example.com/products.csv",
		httpmock.NewStringResponder(503, "unavailable"))
	client := &http.Client{Transport: transport}

	_, err := Open(context.Background(), "https://exports.example.com/products.csv", Options{
		Column:     "link",
		ChunkSize:  10,
		HTTPClient: client,
	})
	var open ErrOpenSource
	if !errors.As(err, &open) {
		t.Fatalf("expected ErrOpenSource, got %v", err)
	}
	if !strings.Contains(err.Error(), "503") {
		t.Fatalf("error should carry the status: %v", err)
	}
}

func TestScannerEmptySource(t *testing.T) {
	path := writeCSV(t, "")

	_, err := Open(context.Background(), path, Options{Column: "link", ChunkSize: 10})
	var missing ErrColumnMissing
	if !errors.As(err, &missing) {
		t.Fatalf("headerless source should fail column lookup, got %v", err)
	}
}
