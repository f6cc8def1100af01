// Package types contains the shared data model for the semscout index:
// chunks, vectors, index entries, file-change events, search options and
// results, and the error taxonomy used across packages.
//
// The types here carry no behavior beyond validation and identity
// derivation. Ownership rules:
//
//   - An IndexEntry belongs to the vector store once inserted; it is never
//     mutated in place, updates replace it wholesale.
//   - A Chunk's ID is a deterministic derivation of its file path and
//     structural position, so reindexing an unchanged file yields the same
//     IDs and an edit replaces rather than duplicates stale entries.
package types
