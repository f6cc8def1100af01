// Package registry tracks, per source file, the set of chunk identities the
// file currently owns. It is the bookkeeping ledger that makes "replace all
// chunks for file X" a computable diff instead of a full-store scan.
package registry

import (
	"sort"
	"sync"
	"time"
)

// Record is the registry's view of one indexed file.
type Record struct {
	FilePath      string
	ChunkIDs      []string
	LastIndexedAt time.Time
}

// Registry maps each file path to the chunk IDs it owns. It holds no
// vectors. Safe for concurrent use, though the ingestion coordinator is the
// only writer and already serializes operations per file path.
type Registry struct {
	mu    sync.RWMutex
	files map[string]*record
}

type record struct {
	chunkIDs      map[string]struct{}
	lastIndexedAt time.Time
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{files: make(map[string]*record)}
}

// RecordChunks replaces the chunk-ID set recorded for filePath and returns
// the previously recorded set. The caller uses the difference to know what
// to delete from the vector store.
func (r *Registry) RecordChunks(filePath string, ids []string) (previous []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.files[filePath]; ok {
		previous = sortedIDs(old.chunkIDs)
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	r.files[filePath] = &record{chunkIDs: set, lastIndexedAt: time.Now()}
	return previous
}

// ChunksFor returns the chunk IDs currently recorded for filePath, sorted
// for determinism. Nil when the file is not recorded.
func (r *Registry) ChunksFor(filePath string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.files[filePath]
	if !ok {
		return nil
	}
	return sortedIDs(rec.chunkIDs)
}

// RemoveFile clears the registry entry for filePath and returns its former
// chunk-ID set.
func (r *Registry) RemoveFile(filePath string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.files[filePath]
	if !ok {
		return nil
	}
	delete(r.files, filePath)
	return sortedIDs(rec.chunkIDs)
}

// AllFiles returns every recorded file path, sorted.
func (r *Registry) AllFiles() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.files))
	for p := range r.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Get returns a copy of the full record for filePath.
func (r *Registry) Get(filePath string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.files[filePath]
	if !ok {
		return Record{}, false
	}
	return Record{
		FilePath:      filePath,
		ChunkIDs:      sortedIDs(rec.chunkIDs),
		LastIndexedAt: rec.lastIndexedAt,
	}, true
}

// Clear removes every record.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = make(map[string]*record)
}

func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
