// Package parser turns raw source content into an ordered sequence of named
// chunks. The default implementation is a line-oriented heuristic scanner
// for Go, JavaScript/TypeScript and Python: it finds top-level declaration
// lines and spans each chunk from its declaration to the line before the
// next one. Syntactically invalid input degrades to fewer or zero chunks;
// only undecodable (non-UTF-8) content is an error.
//
// Chunk IDs are derived from the file path, kind and name in source order,
// so an unchanged file always reproduces the same IDs.
package parser
