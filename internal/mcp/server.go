package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/shivankMERNPro/MediaSense-AI/internal/library"
)

const (
	// ServerName is the MCP server name
	ServerName = "mediasense-mcp"
	// DefaultVersion is reported when the caller does not supply a build version
	DefaultVersion = "dev"
)

// Server wraps the MCP server with the media library it exposes
type Server struct {
	mcp *server.MCPServer
	lib *library.Service
}

// NewServer creates an MCP server exposing lib as tools
func NewServer(lib *library.Service, version string) *Server {
	if version == "" {
		version = DefaultVersion
	}

	s := &Server{
		mcp: server.NewMCPServer(
			ServerName,
			version,
			server.WithToolCapabilities(false),
		),
		lib: lib,
	}
	s.registerTools()
	return s
}

// Serve runs the MCP protocol on stdio until ctx is cancelled or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchMediaTool(), s.handleSearchMedia)
	s.mcp.AddTool(listMediaTool(), s.handleListMedia)
	s.mcp.AddTool(getMediaTool(), s.handleGetMedia)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
