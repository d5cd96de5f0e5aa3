package pipeline

import (
	"bufio"
	"compress/gzip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aluiziolira/go-sitemap-gen/models"
)

// ErrNoURLs is returned by Finish when the source yielded nothing usable.
// An unexpectedly empty catalog export is a failure, not a no-op: downstream
// automation must be able to tell the difference.
var ErrNoURLs = errors.New("pipeline: no URLs extracted from source")

const sitemapXMLNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// lastModLayout is UTC seconds precision with a literal Z suffix.
const lastModLayout = "2006-01-02T15:04:05Z"

type urlEntry struct {
	Loc string `xml:"loc"`
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	XMLNS   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type sitemapRef struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	XMLNS    string       `xml:"xmlns,attr"`
	Sitemaps []sitemapRef `xml:"sitemap"`
}

// WriterOptions configures a SitemapWriter.
type WriterOptions struct {
	// OutputDir receives part files and the index. Created if absent.
	OutputDir string
	// Basename prefixes part filenames: {Basename}{NNNNN}.xml.
	Basename string
	// PerFile caps URLs per part. The last part may hold fewer.
	PerFile int
	// PublicBaseURL builds index <loc> values; a trailing slash is stripped.
	PublicBaseURL string
	// IndexName is the index filename inside OutputDir.
	IndexName string
	// Gzip writes parts gzip-compressed as {Basename}{NNNNN}.xml.gz.
	Gzip bool
	// Metrics may be nil.
	Metrics *Metrics
}

// SitemapWriter accumulates URLs into bounded batches and flushes each batch
// as one sitemap part file, then writes a sitemap index referencing every
// part. All state is local to one run: ordinals restart at 1 every time.
type SitemapWriter struct {
	opts  WriterOptions
	buf   []string
	parts []models.PartFile
	total int

	indexPath string
	finished  bool
}

// NewSitemapWriter validates opts and creates the output directory.
func NewSitemapWriter(opts WriterOptions) (*SitemapWriter, error) {
	if opts.PerFile <= 0 {
		return nil, fmt.Errorf("pipeline: per-file limit must be positive")
	}
	if opts.Basename == "" {
		return nil, fmt.Errorf("pipeline: basename cannot be empty")
	}
	if opts.IndexName == "" {
		return nil, fmt.Errorf("pipeline: index name cannot be empty")
	}
	if opts.PublicBaseURL == "" {
		return nil, fmt.Errorf("pipeline: public base URL cannot be empty")
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %q: %w", opts.OutputDir, err)
	}

	return &SitemapWriter{
		opts: opts,
		buf:  make([]string, 0, opts.PerFile),
	}, nil
}

// Add appends one URL to the batch buffer, flushing a part file whenever the
// buffer reaches the per-file limit.
func (w *SitemapWriter) Add(url string) error {
	w.buf = append(w.buf, url)
	w.total++
	w.opts.Metrics.IncURL()

	if len(w.buf) >= w.opts.PerFile {
		return w.flush()
	}
	return nil
}

// Finish flushes any remaining URLs and writes the sitemap index. It returns
// ErrNoURLs when nothing was ever added; in that case no file has been
// created.
func (w *SitemapWriter) Finish() error {
	if w.finished {
		return fmt.Errorf("pipeline: writer already finished")
	}

	if len(w.buf) > 0 {
		if err := w.flush(); err != nil {
			return err
		}
	}
	if len(w.parts) == 0 {
		return ErrNoURLs
	}

	if err := w.writeIndex(); err != nil {
		return err
	}
	w.finished = true
	return nil
}

// Parts returns the part file references recorded so far, in production
// order.
func (w *SitemapWriter) Parts() []models.PartFile {
	out := make([]models.PartFile, len(w.parts))
	copy(out, w.parts)
	return out
}

// Total reports how many URLs have been added.
func (w *SitemapWriter) Total() int {
	return w.total
}

// IndexPath returns the path of the written index file; empty before Finish
// succeeds.
func (w *SitemapWriter) IndexPath() string {
	return w.indexPath
}

func (w *SitemapWriter) flush() error {
	start := time.Now()

	ordinal := len(w.parts) + 1
	name := fmt.Sprintf("%s%05d.xml", w.opts.Basename, ordinal)
	if w.opts.Gzip {
		name += ".gz"
	}

	doc := urlSet{XMLNS: sitemapXMLNS, URLs: make([]urlEntry, len(w.buf))}
	for i, u := range w.buf {
		doc.URLs[i] = urlEntry{Loc: u}
	}

	if err := w.writeDoc(filepath.Join(w.opts.OutputDir, name), doc, w.opts.Gzip); err != nil {
		return fmt.Errorf("write part %s: %w", name, err)
	}

	w.parts = append(w.parts, models.PartFile{Ordinal: ordinal, Name: name})
	w.buf = w.buf[:0]
	w.opts.Metrics.IncPart()
	w.opts.Metrics.ObserveFlush(time.Since(start))
	return nil
}

func (w *SitemapWriter) writeIndex() error {
	// One timestamp for every entry, captured after all parts are on disk.
	lastMod := time.Now().UTC().Format(lastModLayout)

	doc := sitemapIndex{XMLNS: sitemapXMLNS, Sitemaps: make([]sitemapRef, len(w.parts))}
	for i, part := range w.parts {
		doc.Sitemaps[i] = sitemapRef{
			Loc:     w.opts.PublicBaseURL + "/" + part.Name,
			LastMod: lastMod,
		}
	}

	path := filepath.Join(w.opts.OutputDir, w.opts.IndexName)
	if err := w.writeDoc(path, doc, false); err != nil {
		return fmt.Errorf("write index %s: %w", w.opts.IndexName, err)
	}
	w.indexPath = path
	return nil
}

// writeDoc serializes doc as an XML document. encoding/xml escapes &, < and >
// in <loc> text, so URLs with query strings stay well-formed.
func (w *SitemapWriter) writeDoc(path string, doc any, gzipped bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	bw := bufio.NewWriter(f)
	var out io.Writer = bw
	var gz *gzip.Writer
	if gzipped {
		gz = gzip.NewWriter(bw)
		out = gz
	}

	err = encodeDoc(out, doc)
	if err == nil && gz != nil {
		err = gz.Close()
	}
	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeDoc(out io.Writer, doc any) error {
	if _, err := io.WriteString(out, xml.Header); err != nil {
		return fmt.Errorf("write declaration: %w", err)
	}
	enc := xml.NewEncoder(out)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if _, err := io.WriteString(out, "\n"); err != nil {
		return fmt.Errorf("write trailing newline: %w", err)
	}
	return nil
}
