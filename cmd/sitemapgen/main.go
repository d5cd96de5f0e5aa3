package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-sitemap-gen/config"
	"github.com/aluiziolira/go-sitemap-gen/feed"
	"github.com/aluiziolira/go-sitemap-gen/models"
	"github.com/aluiziolira/go-sitemap-gen/parser"
	"github.com/aluiziolira/go-sitemap-gen/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	baseCfg := config.DefaultConfig()
	if path := configPath(os.Args[1:]); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid config file: %v\n", err)
			os.Exit(1)
		}
		baseCfg = loaded
	}

	outdirDefault := baseCfg.OutputDir
	if value, ok := config.EnvString("SITEMAPGEN_OUTDIR"); ok {
		outdirDefault = value
	}
	perFileDefault := baseCfg.PerFile
	if value, ok, err := config.EnvInt("SITEMAPGEN_PER_FILE"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SITEMAPGEN_PER_FILE: %v\n", err)
		os.Exit(1)
	} else if ok {
		perFileDefault = value
	}
	chunkDefault := baseCfg.ChunkSize
	if value, ok, err := config.EnvInt("SITEMAPGEN_CHUNK_SIZE"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SITEMAPGEN_CHUNK_SIZE: %v\n", err)
		os.Exit(1)
	} else if ok {
		chunkDefault = value
	}
	metricsDefault := baseCfg.MetricsAddr
	if value, ok := config.EnvString("SITEMAPGEN_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	source := flag.String("csv", baseCfg.Source, "CSV source: file path or http(s) URL")
	outdir := flag.String("outdir", outdirDefault, "Output directory (created if absent)")
	basename := flag.String("basename", baseCfg.Basename, "Prefix for part filenames")
	perFile := flag.Int("per-file", perFileDefault, "URLs per sitemap part")
	publicBaseURL := flag.String("public-base-url", baseCfg.PublicBaseURL, "Public base for <loc> values in the index")
	indexName := flag.String("index-name", baseCfg.IndexName, "Index filename")
	linkColumn := flag.String("link-column", baseCfg.LinkColumn, "CSV column holding URLs")
	canonicalHost := flag.String("canonical-host", baseCfg.CanonicalHost, "Canonical www host for same-site URL rewriting (empty disables)")
	queryPolicy := flag.String("query-policy", baseCfg.QueryPolicy, "Query string handling: keep or drop")
	chunkSize := flag.Int("chunk-size", chunkDefault, "CSV rows read per chunk")
	gzipParts := flag.Bool("gzip", baseCfg.Gzip, "Write gzip-compressed part files")
	timeout := flag.Duration("timeout", baseCfg.Timeout, "HTTP source fetch timeout")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", baseCfg.Verbose, "Enable verbose logging")
	flag.String("config", "", "YAML config file providing defaults")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := baseCfg
	cfg.Source = *source
	cfg.OutputDir = *outdir
	cfg.Basename = *basename
	cfg.PerFile = *perFile
	cfg.PublicBaseURL = *publicBaseURL
	cfg.IndexName = *indexName
	cfg.LinkColumn = *linkColumn
	cfg.CanonicalHost = *canonicalHost
	cfg.QueryPolicy = *queryPolicy
	cfg.ChunkSize = *chunkSize
	cfg.Gzip = *gzipParts
	cfg.Timeout = *timeout
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.PerFile > config.ProtocolURLLimit {
		slog.Warn("per-file limit exceeds the sitemaps.org cap",
			slog.Int("per_file", cfg.PerFile),
			slog.Int("protocol_limit", config.ProtocolURLLimit),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy, err := parser.ParsePolicy(cfg.QueryPolicy)
	if err != nil {
		slog.Error("invalid query policy", slog.Any("error", err))
		os.Exit(1)
	}
	normalizer, err := parser.NewNormalizer(cfg.CanonicalHost, policy)
	if err != nil {
		slog.Error("initialising normalizer", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting sitemap generation",
		slog.String("source", cfg.Source),
		slog.String("outdir", cfg.OutputDir),
		slog.Int("per_file", cfg.PerFile),
		slog.String("query_policy", cfg.QueryPolicy),
	)

	scanner, err := feed.Open(ctx, cfg.Source, feed.Options{
		Column:     cfg.LinkColumn,
		ChunkSize:  cfg.ChunkSize,
		Normalize:  normalizer.Normalize,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		UserAgent:  cfg.UserAgent,
	})
	if err != nil {
		slog.Error("opening source", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := scanner.Close(); err != nil {
			slog.Error("close source", slog.Any("error", err))
		}
	}()

	metrics := pipeline.NewMetrics()
	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	writer, err := pipeline.NewSitemapWriter(pipeline.WriterOptions{
		OutputDir:     cfg.OutputDir,
		Basename:      cfg.Basename,
		PerFile:       cfg.PerFile,
		PublicBaseURL: cfg.PublicBaseURL,
		IndexName:     cfg.IndexName,
		Gzip:          cfg.Gzip,
		Metrics:       metrics,
	})
	if err != nil {
		slog.Error("initialising writer", slog.Any("error", err))
		os.Exit(1)
	}

	result, err := pipeline.Run(ctx, scanner, writer)
	metrics.AddRows(scanner.Rows())
	metrics.AddFiltered("empty", scanner.Filtered())
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrNoURLs):
			slog.Error("source yielded no usable URLs; nothing written")
		case errors.Is(err, context.Canceled):
			slog.Error("run interrupted; partial output may remain", slog.String("outdir", cfg.OutputDir))
		default:
			slog.Error("generation failed", slog.Any("error", err))
		}
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, scanner.Rows(), scanner.Filtered(), cfg.OutputDir)
}

// configPath pulls the -config value out of args ahead of flag.Parse so the
// file can seed the defaults the remaining flags override.
func configPath(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, hasValue := strings.Cut(arg, "=")
		if name != "-config" && name != "--config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func printSummary(result *models.RunResult, rows, filtered int64, outdir string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Sitemap generation complete")
	fmt.Printf("  Rows read:     %d\n", rows)
	fmt.Printf("  URLs written:  %d\n", result.URLCount)
	fmt.Printf("  Filtered:      %d\n", filtered)
	fmt.Printf("  Part files:    %d\n", len(result.Parts))
	fmt.Printf("  Index:         %s\n", result.IndexPath)
	fmt.Printf("  Output dir:    %s\n", outdir)
	fmt.Printf("  Duration:      %v\n", result.EndTime.Sub(result.StartTime))
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
