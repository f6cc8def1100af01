package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/semscout/semscout/internal/embedder"
	"github.com/semscout/semscout/internal/parser"
	"github.com/semscout/semscout/internal/registry"
	"github.com/semscout/semscout/internal/store"
	"github.com/semscout/semscout/pkg/types"
)

// DefaultMaxFileSize caps the content accepted for one file.
const DefaultMaxFileSize = 1 << 20 // 1 MiB

// DefaultExtensions are the file types indexed when none are configured.
var DefaultExtensions = []string{".go", ".js", ".jsx", ".mjs", ".ts", ".tsx", ".py"}

// Config bounds what the coordinator accepts.
type Config struct {
	MaxFileSize int64    // bytes; 0 means DefaultMaxFileSize
	Extensions  []string // empty means DefaultExtensions
}

// Coordinator applies file-change events to the store and registry as one
// logical transaction per file.
type Coordinator struct {
	store    *store.Store
	registry *registry.Registry
	embedder embedder.Embedder
	parser   parser.Parser
	readFile func(path string) ([]byte, error)

	maxFileSize int64
	extensions  map[string]struct{}

	locks *pathLocks

	hashMu   sync.Mutex
	lastHash map[string]string // full-file content hash, detects no-op events

	logger *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets a logger for per-file debug and skip events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithFileReader replaces the file-read collaborator, used by tests to
// serve content without a real filesystem.
func WithFileReader(read func(path string) ([]byte, error)) Option {
	return func(c *Coordinator) { c.readFile = read }
}

// New creates a Coordinator with injected collaborators.
func New(st *store.Store, reg *registry.Registry, emb embedder.Embedder, p parser.Parser, cfg Config, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:       st,
		registry:    reg,
		embedder:    emb,
		parser:      p,
		readFile:    os.ReadFile,
		maxFileSize: cfg.MaxFileSize,
		extensions:  make(map[string]struct{}),
		locks:       newPathLocks(),
		lastHash:    make(map[string]string),
		logger:      zap.NewNop(),
	}
	if c.maxFileSize <= 0 {
		c.maxFileSize = DefaultMaxFileSize
	}
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	for _, ext := range exts {
		c.extensions[normalizeExt(ext)] = struct{}{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle applies one file-change event. Events for the same path are
// serialized; the caller may invoke Handle from any goroutine.
func (c *Coordinator) Handle(ctx context.Context, ev types.FileEvent) error {
	switch ev.Kind {
	case types.EventRemoved:
		return c.RemoveFile(ctx, ev.Path)
	case types.EventAdded, types.EventChanged:
		return c.ingestPath(ctx, ev.Path)
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}

// AddOrUpdateFile ingests content pushed by a caller, bypassing the
// file-read collaborator. Serialized against events for the same path.
func (c *Coordinator) AddOrUpdateFile(ctx context.Context, path string, content []byte) error {
	l := c.locks.acquire(path)
	defer c.locks.release(path, l)
	return c.applyLocked(ctx, path, content)
}

// RemoveFile deletes every chunk the file owns from the store and clears
// its registry entry. No parser or embedding call is made. Removing an
// unknown file is a no-op.
func (c *Coordinator) RemoveFile(ctx context.Context, path string) error {
	l := c.locks.acquire(path)
	defer c.locks.release(path, l)

	ids := c.registry.RemoveFile(path)
	c.store.DeleteByIDs(ids)

	c.hashMu.Lock()
	delete(c.lastHash, path)
	c.hashMu.Unlock()

	c.logger.Debug("file removed from index",
		zap.String("path", path), zap.Int("chunks_deleted", len(ids)))
	return nil
}

func (c *Coordinator) ingestPath(ctx context.Context, path string) error {
	l := c.locks.acquire(path)
	defer c.locks.release(path, l)

	if err := c.checkSupported(path); err != nil {
		return err
	}
	content, err := c.readFile(path)
	if err != nil {
		c.logger.Warn("file skipped: unreadable", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %s: %v", types.ErrFileUnreadable, path, err)
	}
	return c.applyLocked(ctx, path, content)
}

// applyLocked runs the replace-not-append sequence for one file. The
// caller holds the path lock.
func (c *Coordinator) applyLocked(ctx context.Context, path string, content []byte) error {
	if err := c.checkSupported(path); err != nil {
		return err
	}
	if int64(len(content)) > c.maxFileSize {
		c.logger.Warn("file skipped: exceeds size limit",
			zap.String("path", path), zap.Int("size", len(content)), zap.Int64("limit", c.maxFileSize))
		return fmt.Errorf("%w: %s: %d bytes", types.ErrFileTooLarge, path, len(content))
	}

	fullHash := types.HashContent(string(content))
	c.hashMu.Lock()
	unchanged := c.lastHash[path] == fullHash
	c.hashMu.Unlock()
	if unchanged {
		c.logger.Debug("file unchanged, skipping reindex", zap.String("path", path))
		return nil
	}

	chunks, err := c.parser.Parse(path, content)
	if err != nil {
		// Prior chunks are left untouched; no partial replace.
		c.logger.Warn("parse failed, keeping previous index state",
			zap.String("path", path), zap.Error(err))
		return err
	}

	entries, embedFailures := c.embedChunks(ctx, path, chunks)
	if len(chunks) > 0 && len(entries) == 0 && embedFailures > 0 {
		// The provider failed for every chunk. Applying the empty set would
		// wipe the file's previous consistent state, so abort instead.
		return fmt.Errorf("%w: %s: all %d chunks failed", types.ErrEmbedding, path, embedFailures)
	}

	// A cancelled ingest discards the partial result wholesale, keeping the
	// previous consistent state for this file.
	if err := ctx.Err(); err != nil {
		return err
	}

	newIDs := make([]string, len(entries))
	for i := range entries {
		newIDs[i] = entries[i].Chunk.ID
	}
	stale := difference(c.registry.ChunksFor(path), newIDs)

	if err := c.store.Upsert(entries); err != nil {
		return err
	}
	c.store.DeleteByIDs(stale)
	c.registry.RecordChunks(path, newIDs)

	c.hashMu.Lock()
	c.lastHash[path] = fullHash
	c.hashMu.Unlock()

	c.logger.Debug("file indexed",
		zap.String("path", path),
		zap.Int("chunks", len(entries)),
		zap.Int("stale_deleted", len(stale)),
		zap.Int("embed_failures", embedFailures),
	)
	return nil
}

// embedChunks embeds each chunk, skipping individual provider failures so
// the rest of the file still proceeds.
func (c *Coordinator) embedChunks(ctx context.Context, path string, chunks []types.Chunk) ([]types.IndexEntry, int) {
	entries := make([]types.IndexEntry, 0, len(chunks))
	failures := 0
	now := time.Now()
	for _, chunk := range chunks {
		vector, err := c.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			failures++
			c.logger.Warn("chunk skipped: embedding failed",
				zap.String("path", path), zap.String("chunk_id", chunk.ID), zap.Error(err))
			continue
		}
		entries = append(entries, types.IndexEntry{Chunk: chunk, Vector: vector, IndexedAt: now})
	}
	return entries, failures
}

func (c *Coordinator) checkSupported(path string) error {
	ext := normalizeExt(filepath.Ext(path))
	if _, ok := c.extensions[ext]; !ok {
		return fmt.Errorf("%w: %s", types.ErrUnsupportedFile, path)
	}
	return nil
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// difference returns the members of prev that are absent from current.
func difference(prev, current []string) []string {
	currentSet := make(map[string]struct{}, len(current))
	for _, id := range current {
		currentSet[id] = struct{}{}
	}
	var stale []string
	for _, id := range prev {
		if _, ok := currentSet[id]; !ok {
			stale = append(stale, id)
		}
	}
	return stale
}
