// Package main is the semscout CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/semscout/semscout/internal/config"
	"github.com/semscout/semscout/internal/embedder"
	"github.com/semscout/semscout/internal/engine"
	"github.com/semscout/semscout/internal/ingest"
	"github.com/semscout/semscout/internal/mcp"
	"github.com/semscout/semscout/internal/server"
	"github.com/semscout/semscout/internal/watcher"
	"github.com/semscout/semscout/pkg/logutil"
	"github.com/semscout/semscout/pkg/types"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "index":
		runIndex()
	case "search":
		runSearch()
	case "watch":
		runWatch()
	case "serve":
		runServe()
	case "server":
		runServer()
	case "stats":
		runStats()
	case "version", "--version", "-v":
		fmt.Printf("semscout version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// loadConfig resolves the configuration. An explicit --config path must
// load; otherwise ./semscout.yaml is used when present, and built-in
// defaults when not.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if cwd, err := os.Getwd(); err == nil {
		fallback := filepath.Join(cwd, "semscout.yaml")
		if _, statErr := os.Stat(fallback); statErr == nil {
			return config.Load(fallback)
		}
	}
	return config.Default(), nil
}

func buildEngine(cfg *config.Config, logger *zap.Logger) (*engine.Engine, error) {
	emb, err := embedder.New(embedder.Config{
		Provider:  cfg.Embedding.Provider,
		Model:     cfg.Embedding.Model,
		APIKey:    cfg.Embedding.APIKey,
		Dimension: cfg.Embedding.Dimension,
		CacheSize: cfg.Embedding.CacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}
	return engine.New(engine.Options{
		Embedder: emb,
		Ingest: ingest.Config{
			MaxFileSize: cfg.Indexing.MaxFileSizeBytes,
			Extensions:  cfg.Indexing.Extensions,
		},
		BatchWorkers: cfg.Indexing.BatchWorkers,
		SnapshotPath: cfg.Storage.SnapshotPath,
		Logger:       logger,
	})
}

func setup(configPath string, debug bool) (*config.Config, *engine.Engine, *zap.Logger) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logutil.New(cfg.Debug || debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	eng, err := buildEngine(cfg, logger)
	if err != nil {
		fmt.Printf("Failed to initialize engine: %v\n", err)
		os.Exit(1)
	}
	return cfg, eng, logger
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	root := fs.Arg(0)
	if root == "" {
		fmt.Println("Usage: semscout index [flags] <directory>")
		os.Exit(1)
	}

	_, eng, logger := setup(*configPath, *debug)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	report, err := eng.IndexTree(ctx, root)
	if err != nil {
		fmt.Printf("Indexing failed: %v\n", err)
		os.Exit(1)
	}
	if err := eng.Close(); err != nil {
		fmt.Printf("Failed to save snapshot: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Indexed %d files in %s\n", report.Succeeded, time.Since(start).Round(time.Millisecond))
	fmt.Printf("  skipped (unsupported): %d\n", report.SkippedUnsupported)
	fmt.Printf("  skipped (too large):   %d\n", report.SkippedTooLarge)
	fmt.Printf("  failed:                %d\n", report.Failed)
	for _, msg := range report.Errors {
		fmt.Printf("    %s\n", msg)
	}
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	topK := fs.Int("top-k", 0, "maximum number of results")
	threshold := fs.Float64("threshold", 0, "minimum similarity score (-1 to 1)")
	language := fs.String("language", "", "restrict to one language")
	kind := fs.String("kind", "", "restrict to one chunk kind (function, method, class, module)")
	filePath := fs.String("file", "", "restrict to one file path")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	query := fs.Arg(0)
	if fs.NArg() == 0 {
		fmt.Println("Usage: semscout search [flags] <query>")
		os.Exit(1)
	}

	_, eng, logger := setup(*configPath, *debug)
	defer func() { _ = logger.Sync() }()
	defer func() { _ = eng.Close() }()

	ctx, cancel := signalContext()
	defer cancel()

	results, err := eng.Search(ctx, query, types.SearchOptions{
		TopK:      *topK,
		Threshold: *threshold,
		Language:  *language,
		Kind:      types.ChunkKind(*kind),
		FilePath:  *filePath,
	})
	if err != nil {
		fmt.Printf("Search failed: %v\n", err)
		os.Exit(1)
	}

	if *output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(results)
		return
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		return
	}
	for i, res := range results {
		c := res.Chunk
		fmt.Printf("%d. [%.4f] %s %s (%s:%d-%d)\n", i+1, res.Score, c.Kind, c.Name, c.FilePath, c.StartLine+1, c.EndLine+1)
		if c.Signature != "" {
			fmt.Printf("   %s\n", c.Signature)
		}
	}
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, eng, logger := setup(*configPath, *debug)
	defer func() { _ = logger.Sync() }()

	roots := fs.Args()
	if len(roots) == 0 {
		roots = cfg.Watch.Directories
	}
	if len(roots) == 0 {
		fmt.Println("Usage: semscout watch [flags] <directory>...")
		os.Exit(1)
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Bring the index up to date before tailing changes.
	for _, root := range roots {
		if _, err := eng.IndexTree(ctx, root); err != nil {
			fmt.Printf("Initial indexing of %s failed: %v\n", root, err)
			os.Exit(1)
		}
	}

	w := watcher.New(roots, cfg.Indexing.Extensions,
		watcher.WithLogger(logger),
		watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond),
	)
	if err := w.Start(ctx); err != nil {
		fmt.Printf("Failed to start watcher: %v\n", err)
		os.Exit(1)
	}
	logger.Info("watching for changes", zap.Strings("roots", roots))

	eng.Consume(ctx, w.Events())

	w.Stop()
	if err := eng.Close(); err != nil {
		logger.Error("shutdown save failed", zap.Error(err))
	}
	logger.Info("watch stopped")
}

// runServe starts the MCP server on stdio. Logs go to stderr; stdout is
// reserved for the protocol.
func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	_, eng, logger := setup(*configPath, *debug)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signalContext()
	defer cancel()

	srv := mcp.NewServer(eng)
	errChan := make(chan error, 1)
	go func() {
		logger.Info("MCP server ready, listening on stdio", zap.String("version", version))
		errChan <- srv.Serve(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errChan:
		if err != nil {
			logger.Error("MCP server error", zap.Error(err))
		}
	}
	if err := eng.Close(); err != nil {
		logger.Error("shutdown save failed", zap.Error(err))
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, eng, logger := setup(*configPath, *debug)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signalContext()
	defer cancel()

	srv := server.NewServer(eng, &cfg.Server, logger)
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", zap.Error(err))
		}
	case err := <-errChan:
		if err != nil {
			logger.Error("server error", zap.Error(err))
		}
	}
	if err := eng.Close(); err != nil {
		logger.Error("shutdown save failed", zap.Error(err))
	}
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	_, eng, logger := setup(*configPath, false)
	defer func() { _ = logger.Sync() }()

	stats := eng.Stats()
	if *output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(stats)
		return
	}
	fmt.Printf("Chunks:    %d\n", stats.ChunkCount)
	fmt.Printf("Files:     %d\n", stats.FileCount)
	fmt.Printf("Dimension: %d\n", stats.Dimension)
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printUsage() {
	fmt.Println(`semscout - Incremental semantic code search

Usage:
  semscout index [flags] <directory>    Index a directory tree
  semscout search [flags] <query>       Search indexed code
  semscout watch [flags] <directory>... Index and follow filesystem changes
  semscout serve [flags]                Start the MCP server on stdio
  semscout server [flags]               Start the HTTP server
  semscout stats [flags]                Show index statistics
  semscout version                      Show version
  semscout help                         Show this help

Common Flags:
  --config string    Config file path (default: ./semscout.yaml when present)
  --debug            Enable debug logging

Search Flags:
  --top-k int          Maximum number of results (default: 5)
  --threshold float    Minimum similarity score, -1 to 1 (default: 0)
  --language string    Restrict to one language (go, python, javascript, typescript)
  --kind string        Restrict to one chunk kind (function, method, class, module)
  --file string        Restrict to one file path
  --output string      Output format: text or json (default: text)

Examples:
  semscout index ./myproject
  semscout search "parse configuration file"
  semscout search --language go --kind function "retry with backoff"
  semscout watch ./myproject
  semscout serve
  semscout server --debug`)
}
