package types

import "errors"

// Error taxonomy. Errors local to one file or one chunk never escalate to
// abort sibling work; only configuration-level faults (dimension mismatch,
// snapshot corruption at startup) are fatal to the engine.
var (
	// Ingestion errors: the file is skipped, the batch continues.
	ErrUnsupportedFile = errors.New("unsupported file extension")
	ErrFileTooLarge    = errors.New("file exceeds size limit")
	ErrFileUnreadable  = errors.New("file not readable")

	// ErrParse marks a parser collaborator failure. The file's prior chunks
	// are left untouched; no partial replace is applied.
	ErrParse = errors.New("parse failed")

	// ErrEmbedding marks an embedding provider failure, scoped to the chunk
	// or query being processed.
	ErrEmbedding = errors.New("embedding failed")

	// ErrDimensionMismatch rejects an insert batch atomically when any
	// vector's length differs from the store dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrStoreIO marks a snapshot read/write failure. The in-memory index
	// keeps operating; writes never corrupt the last good snapshot.
	ErrStoreIO = errors.New("snapshot I/O failure")

	// ErrInvalidQuery rejects malformed search options before any work.
	ErrInvalidQuery = errors.New("invalid query options")
)
