// Package models defines data structures for the sitemap generator.
package models

import "time"

// PartFile identifies one written sitemap part.
type PartFile struct {
	Ordinal int    // 1-based, contiguous, assigned in production order
	Name    string // filename inside the output directory
}

// RunResult holds the overall result of a generation run.
type RunResult struct {
	Parts     []PartFile
	URLCount  int
	IndexPath string
	StartTime time.Time
	EndTime   time.Time
}
