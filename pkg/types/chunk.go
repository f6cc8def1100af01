package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ChunkKind classifies the structural element a chunk was extracted from.
type ChunkKind string

const (
	ChunkFunction ChunkKind = "function"
	ChunkMethod   ChunkKind = "method"
	ChunkClass    ChunkKind = "class"
	ChunkModule   ChunkKind = "module"
)

// Chunk is a named, typed span of source extracted from one file.
type Chunk struct {
	// ID is the stable identity of the chunk, derived from file path and
	// structural position. Unique across the whole index at any instant.
	ID string

	FilePath string
	Language string
	Kind     ChunkKind
	Name     string

	// StartLine and EndLine are 0-based and inclusive.
	StartLine int
	EndLine   int

	// Signature is an optional one-line textual summary (declaration line).
	Signature string

	// Content is the chunk's own source text.
	Content string

	// ContentHash is the SHA-256 hex digest of Content, used to detect
	// no-op re-parses.
	ContentHash string
}

// ChunkID derives the stable identity for a chunk. Ordinal disambiguates
// same-named declarations within one file and is assigned in source order,
// so an unchanged file always reproduces the same IDs.
func ChunkID(filePath string, kind ChunkKind, name string, ordinal int) string {
	if ordinal > 0 {
		return fmt.Sprintf("%s#%s:%s#%d", filePath, kind, name, ordinal)
	}
	return fmt.Sprintf("%s#%s:%s", filePath, kind, name)
}

// HashContent computes the SHA-256 hex digest of a chunk's text.
func HashContent(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// Validate checks structural consistency of the chunk metadata.
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return errors.New("chunk ID cannot be empty")
	}
	if c.FilePath == "" {
		return errors.New("chunk file path cannot be empty")
	}
	if c.StartLine < 0 || c.EndLine < 0 {
		return errors.New("line numbers cannot be negative")
	}
	if c.StartLine > c.EndLine {
		return errors.New("start line must not be after end line")
	}
	switch c.Kind {
	case ChunkFunction, ChunkMethod, ChunkClass, ChunkModule:
	default:
		return fmt.Errorf("invalid chunk kind %q", c.Kind)
	}
	return nil
}

// IndexEntry is the unit stored by the vector store. Once inserted it is
// owned exclusively by the store; updates replace the entry wholesale.
type IndexEntry struct {
	Chunk     Chunk
	Vector    Vector
	IndexedAt time.Time
}
