// Package mcp exposes a project's flows and screens to AI agents over
// the Model Context Protocol on stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/flowdeckhq/flowdeck/internal/model"
	"github.com/flowdeckhq/flowdeck/internal/search"
	"github.com/flowdeckhq/flowdeck/internal/store"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes project browsing and search
// tools. Tools run as the local actor; the MCP transport has no token
// handshake.
type Server struct {
	store  *store.Store
	index  *search.Index
	actor  model.Actor
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies. The
// index may be nil; search_screens then reports that search is
// unavailable instead of failing.
func NewServer(st *store.Store, index *search.Index, actor model.Actor) *Server {
	s := &Server{
		store: st,
		index: index,
		actor: actor,
	}

	s.mcp = server.NewMCPServer(
		"flowdeck",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listProjectsTool, s.handleListProjects)
	s.mcp.AddTool(getFlowTreeTool, s.handleGetFlowTree)
	s.mcp.AddTool(searchScreensTool, s.handleSearchScreens)
	s.mcp.AddTool(getScreenTool, s.handleGetScreen)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
