package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/semscout/semscout/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams   = -32602 // Invalid method parameters
	ErrorCodeInternalError   = -32603 // Internal JSON-RPC error
	ErrorCodeFileRejected    = -32001 // File unsupported, too large, or unparseable
	ErrorCodeEmbeddingFailed = -32002 // Embedding provider failure
)

// handleIndexTree handles the index_tree tool invocation
func (s *Server) handleIndexTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	root, ok := args["root"].(string)
	if !ok || root == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "root parameter is required", map[string]interface{}{
			"param":  "root",
			"reason": "missing or empty",
		})
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, newMCPError(ErrorCodeInvalidParams, "root is not an accessible directory", map[string]interface{}{
			"param": "root",
			"value": root,
		})
	}

	report, err := s.engine.IndexTree(ctx, root)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "batch indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"succeeded":           report.Succeeded,
		"skipped_unsupported": report.SkippedUnsupported,
		"skipped_too_large":   report.SkippedTooLarge,
		"failed":              report.Failed,
	}
	if len(report.Errors) > 0 {
		if len(report.Errors) > 5 {
			response["errors"] = report.Errors[:5]
			response["error_count"] = len(report.Errors)
		} else {
			response["errors"] = report.Errors
		}
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIndexFile handles the index_file tool invocation
func (s *Server) handleIndexFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	var content []byte
	if text, ok := args["content"].(string); ok && text != "" {
		content = []byte(text)
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, newMCPError(ErrorCodeFileRejected, "file is not readable", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
		content = data
	}

	if err := s.engine.AddOrUpdateFile(ctx, path, content); err != nil {
		return nil, toolError(err, path)
	}

	response := map[string]interface{}{
		"path":   path,
		"status": "indexed",
	}
	if rec, ok := s.engine.FileRecord(path); ok {
		response["chunks"] = len(rec.ChunkIDs)
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRemoveFile handles the remove_file tool invocation
func (s *Server) handleRemoveFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := s.engine.RemoveFile(ctx, path); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "remove failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"path":   path,
		"status": "removed",
	})), nil
}

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "query parameter is required", map[string]interface{}{
			"param":  "query",
			"reason": "missing",
		})
	}

	opts := types.SearchOptions{
		TopK:      getIntDefault(args, "top_k", 0),
		Threshold: getFloatDefault(args, "threshold", 0),
		Language:  getStringDefault(args, "language", ""),
		Kind:      types.ChunkKind(getStringDefault(args, "kind", "")),
		FilePath:  getStringDefault(args, "file_path", ""),
	}

	results, err := s.engine.Search(ctx, query, opts)
	if err != nil {
		if errors.Is(err, types.ErrInvalidQuery) {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid search options", map[string]interface{}{
				"error": err.Error(),
			})
		}
		if errors.Is(err, types.ErrEmbedding) {
			return nil, newMCPError(ErrorCodeEmbeddingFailed, "query embedding failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	hits := make([]map[string]interface{}, 0, len(results))
	for _, res := range results {
		c := res.Chunk
		hits = append(hits, map[string]interface{}{
			"id":         c.ID,
			"file_path":  c.FilePath,
			"language":   c.Language,
			"kind":       string(c.Kind),
			"name":       c.Name,
			"start_line": c.StartLine,
			"end_line":   c.EndLine,
			"signature":  c.Signature,
			"content":    c.Content,
			"score":      res.Score,
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"results": hits,
		"count":   len(hits),
	})), nil
}

// handleGetStats handles the get_stats tool invocation
func (s *Server) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.engine.Stats()
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"chunk_count": stats.ChunkCount,
		"file_count":  stats.FileCount,
		"dimension":   stats.Dimension,
	})), nil
}

// handleClearIndex handles the clear_index tool invocation
func (s *Server) handleClearIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.engine.Clear()
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"status": "cleared",
	})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// toolError classifies an ingestion error into an MCP error
func toolError(err error, path string) error {
	switch {
	case errors.Is(err, types.ErrUnsupportedFile),
		errors.Is(err, types.ErrFileTooLarge),
		errors.Is(err, types.ErrFileUnreadable),
		errors.Is(err, types.ErrParse):
		return newMCPError(ErrorCodeFileRejected, "file rejected", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	case errors.Is(err, types.ErrEmbedding):
		return newMCPError(ErrorCodeEmbeddingFailed, "embedding failed", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	default:
		return newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a number parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
