package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/semscout/semscout/internal/engine"
)

const (
	// ServerName is the MCP server name
	ServerName = "semscout"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	engine *engine.Engine
}

// NewServer creates a new MCP server instance over an already-wired engine
func NewServer(eng *engine.Engine) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:    mcpServer,
		engine: eng,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexTreeTool(), s.handleIndexTree)
	s.mcp.AddTool(indexFileTool(), s.handleIndexFile)
	s.mcp.AddTool(removeFileTool(), s.handleRemoveFile)
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(getStatsTool(), s.handleGetStats)
	s.mcp.AddTool(clearIndexTool(), s.handleClearIndex)
}
