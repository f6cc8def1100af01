// Package store owns the vector index: a mapping from chunk identity to
// (metadata, vector) with similarity search, upsert and deletion. It knows
// nothing about files beyond the file path recorded on each chunk; the
// "which IDs belong to file X" question is delegated to the file registry.
//
// Concurrency: a readers-writer lock lets any number of searches proceed in
// parallel while upserts and deletes are mutually exclusive and briefly
// exclusive with readers. A search observes either the pre- or post-upsert
// state for each affected ID, never a half-written entry.
//
// Search applies metadata filters first, scores the surviving candidates
// with cosine similarity, drops scores below the threshold and selects the
// topK with a bounded min-heap, O(n log k) rather than a full sort.
package store
