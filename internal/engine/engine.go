// Package engine assembles the core components behind one façade. The
// operations here are the only calls the CLI, HTTP and MCP layers make.
package engine

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/semscout/semscout/internal/embedder"
	"github.com/semscout/semscout/internal/ingest"
	"github.com/semscout/semscout/internal/parser"
	"github.com/semscout/semscout/internal/registry"
	"github.com/semscout/semscout/internal/search"
	"github.com/semscout/semscout/internal/store"
	"github.com/semscout/semscout/pkg/types"
)

// Options configures engine construction.
type Options struct {
	Embedder     embedder.Embedder
	Parser       parser.Parser // nil selects the heuristic parser
	Ingest       ingest.Config
	BatchWorkers int
	SnapshotPath string // empty disables persistence
	Logger       *zap.Logger
}

// Engine owns the store, registry, coordinator and query engine.
type Engine struct {
	store        *store.Store
	registry     *registry.Registry
	coordinator  *ingest.Coordinator
	batch        *ingest.BatchIndexer
	query        *search.Engine
	embedder     embedder.Embedder
	snapshotPath string
	logger       *zap.Logger
}

// New wires the core together. When a snapshot exists at the configured
// path it is loaded before the engine is returned; an incompatible
// snapshot is a fatal startup error.
func New(opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Embedder == nil {
		return nil, errors.New("engine requires an embedding provider")
	}
	p := opts.Parser
	if p == nil {
		p = parser.NewHeuristic()
	}

	reg := registry.New()
	st := store.New(opts.Embedder.Dimension(), reg, store.WithLogger(logger))
	coord := ingest.New(st, reg, opts.Embedder, p, opts.Ingest, ingest.WithLogger(logger))

	e := &Engine{
		store:        st,
		registry:     reg,
		coordinator:  coord,
		batch:        ingest.NewBatchIndexer(coord, opts.BatchWorkers, logger),
		query:        search.New(st, opts.Embedder, search.WithLogger(logger)),
		embedder:     opts.Embedder,
		snapshotPath: opts.SnapshotPath,
		logger:       logger,
	}

	if e.snapshotPath != "" && store.SnapshotExists(e.snapshotPath) {
		if err := e.loadSnapshot(); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// AddOrUpdateFile (re)indexes one file from pushed content.
func (e *Engine) AddOrUpdateFile(ctx context.Context, path string, content []byte) error {
	return e.coordinator.AddOrUpdateFile(ctx, path, content)
}

// RemoveFile deletes a file's chunks from the index.
func (e *Engine) RemoveFile(ctx context.Context, path string) error {
	return e.coordinator.RemoveFile(ctx, path)
}

// Search returns ranked matches for a natural-language query.
func (e *Engine) Search(ctx context.Context, text string, opts types.SearchOptions) ([]types.SearchResult, error) {
	return e.query.Search(ctx, text, opts)
}

// Stats reports the current index contents.
func (e *Engine) Stats() types.Stats {
	return e.store.Stats()
}

// Clear removes everything from the store and registry.
func (e *Engine) Clear() {
	e.store.Clear()
	e.registry.Clear()
}

// IndexTree batch-indexes a directory tree and saves a snapshot when
// persistence is configured.
func (e *Engine) IndexTree(ctx context.Context, root string) (*types.BatchReport, error) {
	report, err := e.batch.IndexTree(ctx, root)
	if err != nil {
		return report, err
	}
	if saveErr := e.SaveSnapshot(); saveErr != nil {
		e.logger.Error("snapshot save failed after batch index", zap.Error(saveErr))
	}
	return report, nil
}

// Consume drains watcher events until the channel closes or ctx ends.
func (e *Engine) Consume(ctx context.Context, events <-chan types.FileEvent) {
	e.coordinator.Consume(ctx, events)
}

// SaveSnapshot persists the index when a snapshot path is configured.
func (e *Engine) SaveSnapshot() error {
	if e.snapshotPath == "" {
		return nil
	}
	return e.store.SaveSnapshot(e.snapshotPath)
}

// Close persists a final snapshot and releases the embedding provider.
func (e *Engine) Close() error {
	saveErr := e.SaveSnapshot()
	if err := e.embedder.Close(); err != nil && saveErr == nil {
		saveErr = err
	}
	return saveErr
}

// loadSnapshot restores store and registry from disk, keeping the two
// consistent with each other.
func (e *Engine) loadSnapshot() error {
	entries, err := store.LoadSnapshot(e.snapshotPath, e.store.Dimension())
	if err != nil {
		return err
	}
	if err := e.store.Upsert(entries); err != nil {
		return err
	}
	perFile := make(map[string][]string)
	for i := range entries {
		c := &entries[i].Chunk
		perFile[c.FilePath] = append(perFile[c.FilePath], c.ID)
	}
	for path, ids := range perFile {
		e.registry.RecordChunks(path, ids)
	}
	e.logger.Info("snapshot loaded",
		zap.String("path", e.snapshotPath),
		zap.Int("chunks", len(entries)),
		zap.Int("files", len(perFile)),
	)
	return nil
}

// FileRecord reports the registry's view of one indexed file: the chunk
// IDs it owns and when it was last indexed.
func (e *Engine) FileRecord(path string) (registry.Record, bool) {
	return e.registry.Get(path)
}
