// Package mcpsearch exposes the match engine as a single MCP tool, "search",
// over stdio.
package mcpsearch

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/jayvdb/tsgrep/pkg/mcplog"
)

const serverVersion = "0.1.0-dev"

// Server implements the MCP server exposing tsgrep's search as a tool.
type Server struct {
	mcpServer *server.MCPServer
	logger    *slog.Logger
	toolLog   *mcplog.Logger // may be nil if call logging is disabled
}

// NewServer creates an MCP server. logger may be nil; toolLog, if non-nil,
// records every tool call as a JSONL entry the way pkg/mcp/middleware.go
// does.
func NewServer(logger *slog.Logger, toolLog *mcplog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{logger: logger, toolLog: toolLog}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if toolLog != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}

	s.mcpServer = server.NewMCPServer("tsgrep", serverVersion, opts...)
	s.mcpServer.AddTools(
		server.ServerTool{Tool: searchTool(), Handler: s.handleSearch},
	)
	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Close shuts down the tool-call logger, if one is active.
func (s *Server) Close() error {
	if s.toolLog != nil {
		return s.toolLog.Close()
	}
	return nil
}
