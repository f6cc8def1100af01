package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/semscout/semscout/pkg/types"
)

// SchemaVersion is the on-disk snapshot format version. Loading any other
// version fails at startup rather than silently reinterpreting vectors.
const SchemaVersion = 1

type snapshotEntry struct {
	ID          string        `json:"id"`
	FilePath    string        `json:"filePath"`
	Language    string        `json:"language"`
	Kind        string        `json:"kind"`
	Name        string        `json:"name"`
	StartLine   int           `json:"startLine"`
	EndLine     int           `json:"endLine"`
	Signature   string        `json:"signature,omitempty"`
	Content     string        `json:"content"`
	ContentHash string        `json:"contentHash"`
	Vector      types.Vector  `json:"vector"`
	IndexedAt   time.Time     `json:"indexedAt"`
}

type snapshotFile struct {
	SchemaVersion int             `json:"schemaVersion"`
	Dimension     int             `json:"dimension"`
	Entries       []snapshotEntry `json:"entries"`
}

// SaveSnapshot writes the current index to path. The write goes to a
// temporary file in the same directory followed by a rename, so a failure
// mid-write never corrupts the last good snapshot.
func (s *Store) SaveSnapshot(path string) error {
	s.mu.RLock()
	snap := snapshotFile{
		SchemaVersion: SchemaVersion,
		Dimension:     s.dimension,
		Entries:       make([]snapshotEntry, 0, len(s.entries)),
	}
	for _, e := range s.entries {
		snap.Entries = append(snap.Entries, snapshotEntry{
			ID:          e.Chunk.ID,
			FilePath:    e.Chunk.FilePath,
			Language:    e.Chunk.Language,
			Kind:        string(e.Chunk.Kind),
			Name:        e.Chunk.Name,
			StartLine:   e.Chunk.StartLine,
			EndLine:     e.Chunk.EndLine,
			Signature:   e.Chunk.Signature,
			Content:     e.Chunk.Content,
			ContentHash: e.Chunk.ContentHash,
			Vector:      e.Vector,
			IndexedAt:   e.IndexedAt,
		})
	}
	s.mu.RUnlock()

	data, err := json.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %v", types.ErrStoreIO, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: create snapshot directory: %v", types.ErrStoreIO, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp snapshot: %v", types.ErrStoreIO, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: write snapshot: %v", types.ErrStoreIO, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: close snapshot: %v", types.ErrStoreIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: replace snapshot: %v", types.ErrStoreIO, err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot and returns its
// entries. An incompatible schema version or dimension is an error; the
// caller must not proceed with a store of a different width.
func LoadSnapshot(path string, dimension int) ([]types.IndexEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", types.ErrStoreIO, err)
		}
		return nil, fmt.Errorf("%w: read snapshot: %v", types.ErrStoreIO, err)
	}

	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", types.ErrStoreIO, err)
	}
	if snap.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: snapshot schema version %d, want %d",
			types.ErrStoreIO, snap.SchemaVersion, SchemaVersion)
	}
	if snap.Dimension != dimension {
		return nil, fmt.Errorf("%w: snapshot dimension %d, store dimension is %d",
			types.ErrStoreIO, snap.Dimension, dimension)
	}

	entries := make([]types.IndexEntry, 0, len(snap.Entries))
	for _, se := range snap.Entries {
		if len(se.Vector) != dimension {
			return nil, fmt.Errorf("%w: snapshot entry %s has dimension %d, want %d",
				types.ErrStoreIO, se.ID, len(se.Vector), dimension)
		}
		entries = append(entries, types.IndexEntry{
			Chunk: types.Chunk{
				ID:          se.ID,
				FilePath:    se.FilePath,
				Language:    se.Language,
				Kind:        types.ChunkKind(se.Kind),
				Name:        se.Name,
				StartLine:   se.StartLine,
				EndLine:     se.EndLine,
				Signature:   se.Signature,
				Content:     se.Content,
				ContentHash: se.ContentHash,
			},
			Vector:    se.Vector,
			IndexedAt: se.IndexedAt,
		})
	}
	return entries, nil
}

// SnapshotExists reports whether a snapshot file is present at path.
func SnapshotExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
