package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for a generation run.
type Metrics struct {
	Registry         *prometheus.Registry
	RowsReadTotal    prometheus.Counter
	URLsTotal        prometheus.Counter
	FilteredTotal    *prometheus.CounterVec
	PartsTotal       prometheus.Counter
	PartFlushSeconds prometheus.Histogram
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	rowsRead := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sitemapgen_rows_read_total",
			Help: "Total CSV data rows read from the source.",
		},
	)
	urls := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sitemapgen_urls_total",
			Help: "Total URLs accepted into sitemap parts.",
		},
	)
	filtered := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitemapgen_filtered_values_total",
			Help: "Total source values dropped before batching, by reason.",
		},
		[]string{"reason"},
	)
	parts := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sitemapgen_parts_written_total",
			Help: "Total sitemap part files written.",
		},
	)
	flushSeconds := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sitemapgen_part_flush_duration_seconds",
			Help:    "Time spent serializing and writing one part file.",
			Buckets: prometheus.DefBuckets,
		},
	)

	registry.MustRegister(rowsRead, urls, filtered, parts, flushSeconds)

	return &Metrics{
		Registry:         registry,
		RowsReadTotal:    rowsRead,
		URLsTotal:        urls,
		FilteredTotal:    filtered,
		PartsTotal:       parts,
		PartFlushSeconds: flushSeconds,
	}
}

// AddRows records n data rows read from the source.
func (m *Metrics) AddRows(n int64) {
	if m == nil {
		return
	}
	m.RowsReadTotal.Add(float64(n))
}

// IncURL counts one URL accepted into the batch buffer.
func (m *Metrics) IncURL() {
	if m == nil {
		return
	}
	m.URLsTotal.Inc()
}

// AddFiltered records n values dropped for the given reason.
func (m *Metrics) AddFiltered(reason string, n int64) {
	if m == nil {
		return
	}
	m.FilteredTotal.WithLabelValues(reason).Add(float64(n))
}

// IncPart counts one written part file.
func (m *Metrics) IncPart() {
	if m == nil {
		return
	}
	m.PartsTotal.Inc()
}

// ObserveFlush records how long one part flush took.
func (m *Metrics) ObserveFlush(d time.Duration) {
	if m == nil {
		return
	}
	m.PartFlushSeconds.Observe(d.Seconds())
}
