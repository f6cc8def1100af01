package store

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/semscout/semscout/pkg/types"
)

// FileLedger answers "which chunk IDs does this file own". Satisfied by
// *registry.Registry.
type FileLedger interface {
	ChunksFor(filePath string) []string
}

// Store is the in-memory vector index.
type Store struct {
	mu        sync.RWMutex
	dimension int
	entries   map[string]types.IndexEntry
	perFile   map[string]int // file path -> live chunk count, for Stats
	ledger    FileLedger
	logger    *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a logger for high-severity events (dimension faults).
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates an empty store with a fixed vector dimension. The ledger is
// consulted by DeleteByFile and may be nil if that operation is unused.
func New(dimension int, ledger FileLedger, opts ...Option) *Store {
	s := &Store{
		dimension: dimension,
		entries:   make(map[string]types.IndexEntry),
		perFile:   make(map[string]int),
		ledger:    ledger,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dimension returns the fixed vector dimension of this store.
func (s *Store) Dimension() int {
	return s.dimension
}

// Upsert inserts or replaces entries by chunk ID. The whole batch is
// rejected, with no partial mutation, when any vector's length differs from
// the store dimension. Vectors are copied on the way in so the store owns
// its entries exclusively.
func (s *Store) Upsert(entries []types.IndexEntry) error {
	for i := range entries {
		if len(entries[i].Vector) != s.dimension {
			s.logger.Error("upsert rejected: dimension mismatch",
				zap.String("chunk_id", entries[i].Chunk.ID),
				zap.Int("got", len(entries[i].Vector)),
				zap.Int("want", s.dimension),
			)
			return fmt.Errorf("%w: chunk %s has dimension %d, store dimension is %d",
				types.ErrDimensionMismatch, entries[i].Chunk.ID, len(entries[i].Vector), s.dimension)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range entries {
		e := entries[i]
		e.Vector = e.Vector.Clone()
		if old, ok := s.entries[e.Chunk.ID]; ok {
			s.decrementFileLocked(old.Chunk.FilePath)
		}
		s.entries[e.Chunk.ID] = e
		s.perFile[e.Chunk.FilePath]++
	}
	return nil
}

// DeleteByIDs removes entries by chunk ID. IDs not present are ignored.
func (s *Store) DeleteByIDs(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if e, ok := s.entries[id]; ok {
			s.decrementFileLocked(e.Chunk.FilePath)
			delete(s.entries, id)
		}
	}
}

// DeleteByFile removes every entry currently recorded for filePath,
// consulting the file ledger for the ID set.
func (s *Store) DeleteByFile(filePath string) {
	if s.ledger == nil {
		return
	}
	s.DeleteByIDs(s.ledger.ChunksFor(filePath))
}

// Search returns the topK entries ranked by cosine similarity against the
// query vector, after applying the option filters. Ties break by ascending
// chunk ID.
func (s *Store) Search(query types.Vector, opts types.SearchOptions) ([]types.SearchResult, error) {
	if err := opts.Normalize(); err != nil {
		return nil, err
	}
	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, store dimension is %d",
			types.ErrDimensionMismatch, len(query), s.dimension)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	top := newTopK(opts.TopK)
	for _, e := range s.entries {
		if !matchesFilters(&e.Chunk, &opts) {
			continue
		}
		score := types.CosineSimilarity(query, e.Vector)
		if score < opts.Threshold {
			continue
		}
		top.offer(e.Chunk, score)
	}
	return top.results(), nil
}

// Get returns the entry stored for a chunk ID.
func (s *Store) Get(id string) (types.IndexEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if ok {
		e.Vector = e.Vector.Clone()
	}
	return e, ok
}

// Stats reports the current index contents.
func (s *Store) Stats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.Stats{
		ChunkCount: len(s.entries),
		FileCount:  len(s.perFile),
		Dimension:  s.dimension,
	}
}

// Clear removes everything. The dimension is retained.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]types.IndexEntry)
	s.perFile = make(map[string]int)
}

func (s *Store) decrementFileLocked(filePath string) {
	if n := s.perFile[filePath]; n <= 1 {
		delete(s.perFile, filePath)
	} else {
		s.perFile[filePath] = n - 1
	}
}

// matchesFilters applies the equality filters before any similarity math.
func matchesFilters(c *types.Chunk, opts *types.SearchOptions) bool {
	if opts.Language != "" && c.Language != opts.Language {
		return false
	}
	if opts.Kind != "" && c.Kind != opts.Kind {
		return false
	}
	if opts.FilePath != "" && c.FilePath != opts.FilePath {
		return false
	}
	return true
}
