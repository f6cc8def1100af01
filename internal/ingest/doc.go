// Package ingest applies file-change events to the index.
//
// The Coordinator turns one event into a consistent per-file update: parse,
// embed, diff against the registry's previous chunk set, delete stale
// entries, upsert the new ones, record the new set. Events for the same
// file path are processed one at a time in arrival order; events for
// different files proceed concurrently. A parser or embedding failure for
// one file is logged and isolated, it never blocks or rolls back sibling
// files.
//
// The BatchIndexer drives the Coordinator over an initial file enumeration
// with a bounded worker pool and reports per-class counts.
package ingest
