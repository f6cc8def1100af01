// Package mcp implements the Model Context Protocol (MCP) server for semscout.
//
// The MCP server exposes the index engine to AI coding assistants as six tools:
//   - index_tree: Batch-index every supported file under a directory
//   - index_file: Index or re-index a single file
//   - remove_file: Remove a file's chunks from the index
//   - search_code: Search indexed code with natural language queries
//   - get_stats: Report index contents
//   - clear_index: Empty the index
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates with MCP clients via standard input/output,
// making it simple to integrate with any MCP-compatible client.
//
// # Basic Usage
//
// The MCP server is typically started via the serve command:
//
//	semscout serve
//
// It then listens on stdin for MCP protocol messages and writes responses
// to stdout. All tools operate on one shared in-memory index; a snapshot
// path configured at startup makes the index survive restarts.
package mcp
