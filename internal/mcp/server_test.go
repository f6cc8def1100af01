package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semscout/semscout/internal/embedder"
	"github.com/semscout/semscout/internal/engine"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	emb, err := embedder.New(embedder.Config{Provider: embedder.ProviderHash})
	require.NoError(t, err)
	eng, err := engine.New(engine.Options{Embedder: emb})
	require.NoError(t, err)
	return NewServer(eng)
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "expected text content")
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	return payload
}

func TestServer_Initialization(t *testing.T) {
	s := newTestServer(t)
	assert.NotNil(t, s.mcp, "MCP server should be initialized")
	assert.NotNil(t, s.engine, "engine should be initialized")
}

func TestHandleIndexFile(t *testing.T) {
	ctx := context.Background()

	t.Run("indexes pushed content", func(t *testing.T) {
		s := newTestServer(t)
		result, err := s.handleIndexFile(ctx, callRequest("index_file", map[string]interface{}{
			"path":    "svc/auth.go",
			"content": "package svc\n\nfunc Login() error {\n\treturn nil\n}\n",
		}))
		require.NoError(t, err)
		payload := resultText(t, result)
		assert.Equal(t, "indexed", payload["status"])
		chunks, ok := payload["chunks"].(float64)
		require.True(t, ok, "response reports the file's chunk count")
		assert.Greater(t, chunks, float64(0))

		stats := s.engine.Stats()
		assert.Equal(t, 1, stats.FileCount)
		assert.Greater(t, stats.ChunkCount, 0)
	})

	t.Run("missing path is invalid params", func(t *testing.T) {
		s := newTestServer(t)
		_, err := s.handleIndexFile(ctx, callRequest("index_file", map[string]interface{}{}))
		require.Error(t, err)
		var mcpErr *MCPError
		require.ErrorAs(t, err, &mcpErr)
		assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
	})

	t.Run("unsupported extension is rejected", func(t *testing.T) {
		s := newTestServer(t)
		_, err := s.handleIndexFile(ctx, callRequest("index_file", map[string]interface{}{
			"path":    "image.png",
			"content": "not code",
		}))
		require.Error(t, err)
		var mcpErr *MCPError
		require.ErrorAs(t, err, &mcpErr)
		assert.Equal(t, ErrorCodeFileRejected, mcpErr.Code)
	})
}

func TestHandleSearchCode(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	_, err := s.handleIndexFile(ctx, callRequest("index_file", map[string]interface{}{
		"path":    "svc/auth.go",
		"content": "package svc\n\nfunc Login() error {\n\treturn nil\n}\n\nfunc Logout() error {\n\treturn nil\n}\n",
	}))
	require.NoError(t, err)

	t.Run("returns ranked hits", func(t *testing.T) {
		result, err := s.handleSearchCode(ctx, callRequest("search_code", map[string]interface{}{
			"query": "user login",
			"top_k": float64(3),
		}))
		require.NoError(t, err)
		payload := resultText(t, result)
		assert.NotZero(t, payload["count"])
	})

	t.Run("negative top_k is invalid params", func(t *testing.T) {
		_, err := s.handleSearchCode(ctx, callRequest("search_code", map[string]interface{}{
			"query": "anything",
			"top_k": float64(-1),
		}))
		require.Error(t, err)
		var mcpErr *MCPError
		require.ErrorAs(t, err, &mcpErr)
		assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
	})

	t.Run("missing query is invalid params", func(t *testing.T) {
		_, err := s.handleSearchCode(ctx, callRequest("search_code", map[string]interface{}{}))
		require.Error(t, err)
		var mcpErr *MCPError
		require.ErrorAs(t, err, &mcpErr)
		assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
	})
}

func TestHandleRemoveAndStats(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	_, err := s.handleIndexFile(ctx, callRequest("index_file", map[string]interface{}{
		"path":    "svc/auth.go",
		"content": "package svc\n\nfunc Login() error {\n\treturn nil\n}\n",
	}))
	require.NoError(t, err)

	result, err := s.handleGetStats(ctx, callRequest("get_stats", map[string]interface{}{}))
	require.NoError(t, err)
	payload := resultText(t, result)
	assert.Equal(t, float64(1), payload["file_count"])

	result, err = s.handleRemoveFile(ctx, callRequest("remove_file", map[string]interface{}{
		"path": "svc/auth.go",
	}))
	require.NoError(t, err)
	payload = resultText(t, result)
	assert.Equal(t, "removed", payload["status"])

	stats := s.engine.Stats()
	assert.Zero(t, stats.ChunkCount)
	assert.Zero(t, stats.FileCount)

	// Removing again is a no-op, not an error.
	_, err = s.handleRemoveFile(ctx, callRequest("remove_file", map[string]interface{}{
		"path": "svc/auth.go",
	}))
	require.NoError(t, err)
}

func TestHandleClearIndex(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	_, err := s.handleIndexFile(ctx, callRequest("index_file", map[string]interface{}{
		"path":    "a.py",
		"content": "def run():\n    return 1\n",
	}))
	require.NoError(t, err)

	result, err := s.handleClearIndex(ctx, callRequest("clear_index", map[string]interface{}{}))
	require.NoError(t, err)
	payload := resultText(t, result)
	assert.Equal(t, "cleared", payload["status"])
	assert.Zero(t, s.engine.Stats().ChunkCount)
}
