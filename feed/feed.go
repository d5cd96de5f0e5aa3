// Package feed streams catalog URLs out of a large CSV export without ever
// holding the full column in memory.
package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Options configures a Scanner.
type Options struct {
	// Column is the CSV header name holding URLs.
	Column string
	// ChunkSize is how many rows are decoded per read burst. Peak memory is
	// proportional to it, never to the total row count.
	ChunkSize int
	// Normalize, when non-nil, rewrites each trimmed value before it is
	// yielded.
	Normalize func(string) string
	// HTTPClient fetches http(s) sources. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// UserAgent is sent when fetching http(s) sources.
	UserAgent string
}

// Scanner yields trimmed, normalized URL values from a CSV source in source
// order. It follows the bufio.Scanner idiom:
//
//	for s.Scan() {
//		use(s.URL())
//	}
//	if err := s.Err(); err != nil { ... }
//
// A Scanner is not restartable and not safe for concurrent use.
type Scanner struct {
	reader    *csv.Reader
	closer    io.Closer
	column    int
	chunkSize int
	normalize func(string) string

	chunk []string
	pos   int
	cur   string

	rows     int64
	filtered int64

	done bool
	err  error
}

// Open prepares a Scanner over source, which is either a filesystem path or
// an http(s) URL. The header row is read immediately so a missing column
// fails before any value is produced.
func Open(ctx context.Context, source string, opts Options) (*Scanner, error) {
	if opts.Column == "" {
		return nil, fmt.Errorf("feed: column name cannot be empty")
	}
	if opts.ChunkSize <= 0 {
		return nil, fmt.Errorf("feed: chunk size must be positive")
	}

	body, err := openSource(ctx, source, opts)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(body)
	reader.ReuseRecord = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		body.Close()
		if errors.Is(err, io.EOF) {
			return nil, ErrColumnMissing{Column: opts.Column}
		}
		return nil, fmt.Errorf("feed: read header: %w", err)
	}

	column := -1
	fields := make([]string, len(header))
	for i, name := range header {
		fields[i] = strings.TrimSpace(name)
		if fields[i] == opts.Column {
			column = i
		}
	}
	if column < 0 {
		body.Close()
		return nil, ErrColumnMissing{Column: opts.Column, Header: fields}
	}

	return &Scanner{
		reader:    reader,
		closer:    body,
		column:    column,
		chunkSize: opts.ChunkSize,
		normalize: opts.Normalize,
		chunk:     make([]string, 0, opts.ChunkSize),
	}, nil
}

// Scan advances to the next URL. It returns false when the source is
// exhausted or a read error occurred; Err disambiguates.
func (s *Scanner) Scan() bool {
	for {
		if s.pos < len(s.chunk) {
			s.cur = s.chunk[s.pos]
			s.pos++
			return true
		}
		if s.done || s.err != nil {
			return false
		}
		s.fill()
	}
}

// URL returns the value produced by the last successful Scan.
func (s *Scanner) URL() string {
	return s.cur
}

// Err returns the first error encountered while reading the source.
func (s *Scanner) Err() error {
	return s.err
}

// Rows reports how many data rows have been read so far.
func (s *Scanner) Rows() int64 {
	return s.rows
}

// Filtered reports how many values were dropped as empty after trimming.
func (s *Scanner) Filtered() int64 {
	return s.filtered
}

// Close releases the underlying file or response body.
func (s *Scanner) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// fill decodes up to chunkSize rows into the value buffer, trimming and
// dropping blanks along the way.
func (s *Scanner) fill() {
	s.chunk = s.chunk[:0]
	s.pos = 0

	for len(s.chunk) < s.chunkSize {
		record, err := s.reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.done = true
				return
			}
			s.err = fmt.Errorf("feed: read row: %w", err)
			return
		}
		s.rows++

		value := ""
		if s.column < len(record) {
			value = strings.TrimSpace(record[s.column])
		}
		if value == "" {
			s.filtered++
			continue
		}
		if s.normalize != nil {
			value = s.normalize(value)
		}
		s.chunk = append(s.chunk, value)
	}
}

func openSource(ctx context.Context, source string, opts Options) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return fetchSource(ctx, source, opts)
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, ErrOpenSource{Source: source, Err: err}
	}
	return f, nil
}

func fetchSource(ctx context.Context, source string, opts Options) (io.ReadCloser, error) {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, ErrOpenSource{Source: source, Err: err}
	}
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, ErrOpenSource{Source: source, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, ErrOpenSource{Source: source, Err: fmt.Errorf("http status %d", resp.StatusCode)}
	}
	return resp.Body, nil
}
