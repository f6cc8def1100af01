package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexTreeTool returns the tool definition for index_tree
func indexTreeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_tree",
		Description: "Index every supported source file under a directory tree",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"root": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the directory tree to index",
				},
			},
			Required: []string{"root"},
		},
	}
}

// indexFileTool returns the tool definition for index_file
func indexFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_file",
		Description: "Index or re-index a single source file; previously indexed chunks that no longer exist are removed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path of the file to index",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "File content to index; when omitted the file is read from disk",
				},
			},
			Required: []string{"path"},
		},
	}
}

// removeFileTool returns the tool definition for remove_file
func removeFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "remove_file",
		Description: "Remove every indexed chunk belonging to a file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path of the file to remove from the index",
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchCodeTool returns the tool definition for search_code
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Search indexed code with a natural language query",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return",
					"default":     5,
					"minimum":     1,
					"maximum":     100,
				},
				"threshold": map[string]interface{}{
					"type":        "number",
					"description": "Minimum cosine similarity score (-1.0 to 1.0)",
					"minimum":     -1.0,
					"maximum":     1.0,
				},
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Restrict results to one language (go, python, javascript, typescript)",
				},
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Restrict results to one chunk kind",
					"enum":        []string{"function", "method", "class", "module"},
				},
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Restrict results to chunks from one file",
				},
			},
			Required: []string{"query"},
		},
	}
}

// getStatsTool returns the tool definition for get_stats
func getStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_stats",
		Description: "Report the number of indexed chunks and files and the vector dimension",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// clearIndexTool returns the tool definition for clear_index
func clearIndexTool() mcp.Tool {
	return mcp.Tool{
		Name:        "clear_index",
		Description: "Remove every chunk from the index",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
