// bitwatchd - background daemon that analyzes bit-pattern files.
//
// The daemon watches the configured directories, and whenever a matching
// file settles after a burst of writes it reads the file, strips non-bit
// characters, runs the full pattern analysis, and appends the record to
// the history store.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitwatch/internal/analysis"
	"bitwatch/internal/config"
	"bitwatch/internal/logging"
	"bitwatch/internal/store"
	"bitwatch/internal/watch"
)

var (
	configPath = flag.String("config", "", "path to config file")
	watchFlag  = flag.String("watch", "", "path to watch (overrides config)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *watchFlag != "" {
		cfg.Watch.Paths = []string{*watchFlag}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	if len(cfg.Watch.Paths) == 0 {
		fmt.Fprintln(os.Stderr, "No watch paths configured; set watch.paths or pass -watch")
		os.Exit(1)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing directories: %v\n", err)
		os.Exit(1)
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	logging.SetDefault(logger)

	st, err := store.Open(store.Options{
		Type:       cfg.Storage.Type,
		Path:       cfg.Storage.Path,
		MaxRecords: cfg.Storage.MaxRecords,
		Secure:     cfg.Storage.Secure,
		KeyPath:    cfg.Storage.KeyPath,
	})
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	analyzer := analysis.New(analysis.Options{
		Thresholds:     cfg.Analysis.Thresholds,
		PatternLengths: cfg.Analysis.PatternLengths,
		WindowSizes:    cfg.Analysis.WindowSizes,
		Strict:         cfg.Analysis.Strict,
	})

	watcher, err := watch.New(watch.Options{
		Paths:           cfg.Watch.Paths,
		IncludePatterns: cfg.Watch.IncludePatterns,
		ExcludePatterns: cfg.Watch.ExcludePatterns,
		Debounce:        time.Duration(cfg.Watch.DebounceMs) * time.Millisecond,
	})
	if err != nil {
		logger.Error("create watcher", "error", err)
		os.Exit(1)
	}
	if err := watcher.Start(); err != nil {
		logger.Error("start watcher", "error", err)
		os.Exit(1)
	}

	logger.Info("bitwatchd started",
		"paths", cfg.Watch.Paths,
		"storage", cfg.Storage.Type,
		"debounce_ms", cfg.Watch.DebounceMs)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case sig := <-sigCh:
			logger.Info("shutting down", "signal", sig.String())
			if err := watcher.Stop(); err != nil {
				logger.Warn("stop watcher", "error", err)
			}
			return

		case event, ok := <-watcher.Events():
			if !ok {
				return
			}
			processFile(logger, analyzer, st, cfg, event)

		case err, ok := <-watcher.Errors():
			if !ok {
				return
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

// processFile analyzes one stable file and saves the record.
func processFile(logger *logging.Logger, analyzer *analysis.Analyzer, st store.Store, cfg *config.Config, event watch.Event) {
	if cfg.Analysis.MaxInputBytes > 0 && event.Size > cfg.Analysis.MaxInputBytes {
		logger.Warn("skipping oversized file", "path", event.Path, "size", event.Size)
		return
	}

	data, err := os.ReadFile(event.Path)
	if err != nil {
		logger.Warn("read file", "path", event.Path, "error", err)
		return
	}

	record, err := analyzer.Analyze(string(data))
	if err != nil {
		logger.Warn("analyze file", "path", event.Path, "error", err)
		return
	}

	if err := st.Save(record); err != nil {
		logger.Error("save record", "path", event.Path, "error", err)
		return
	}

	logger.Info("pattern analyzed",
		"path", event.Path,
		"type", record.Classification.Type,
		"entropy", record.Metrics.Entropy,
		"length", record.Metrics.Length,
		"id", record.ID[:16])
}

func setupLogging(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	return logging.New(&logging.Config{
		Level:     level,
		Format:    format,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		Component: "bitwatchd",
	})
}
