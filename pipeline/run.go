// Package pipeline batches a stream of URLs into sitemap part files and
// writes the sitemap index referencing them.
package pipeline

import (
	"context"
	"time"

	"github.com/aluiziolira/go-sitemap-gen/models"
)

// Source is a pull-based stream of URLs. feed.Scanner satisfies it.
type Source interface {
	Scan() bool
	URL() string
	Err() error
}

// Run drains src through w: one logical thread of control, reads and flushes
// interleaving cooperatively. It returns ErrNoURLs (via Finish) when the
// source produced nothing.
func Run(ctx context.Context, src Source, w *SitemapWriter) (*models.RunResult, error) {
	start := time.Now()

	for src.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := w.Add(src.URL()); err != nil {
			return nil, err
		}
	}
	if err := src.Err(); err != nil {
		return nil, err
	}

	if err := w.Finish(); err != nil {
		return nil, err
	}

	return &models.RunResult{
		Parts:     w.Parts(),
		URLCount:  w.Total(),
		IndexPath: w.IndexPath(),
		StartTime: start,
		EndTime:   time.Now(),
	}, nil
}
