// Package mcp exposes window-metadata operations as MCP tools over stdio.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"iconjack/internal/config"
	"iconjack/internal/x11"
)

const (
	ServerName    = "iconjack"
	ServerVersion = "0.1.0"
)

// Server is the MCP server backed by one X11 connection.
type Server struct {
	mcpServer *mcpsdk.Server
	config    *config.Config
	conn      *x11.Connection
}

// NewServer opens the display from cfg and builds the tool server.
func NewServer(cfg *config.Config) (*Server, error) {
	conn, err := x11.Open(cfg.Display)
	if err != nil {
		return nil, err
	}
	conn.Synchronize(cfg.Synchronize)

	s := &Server{
		config: cfg,
		conn:   conn,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run serves on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close releases the X11 connection.
func (s *Server) Close() {
	s.conn.Close()
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List the window manager's managed top-level windows with their id, title, process id and class hint. The currently active window is marked.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "window_info",
		Description: "Show one window's metadata: title, process id, class hint, application identifiers, stored icon sizes and its place in the window tree.",
	}, s.handleWindowInfo)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_window_icon",
		Description: "Set a window's icon from an image file (or a generated test gradient), temporarily masking the window's identity properties so the window manager's cached per-application icon does not override it.",
	}, s.handleSetWindowIcon)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "clear_window_icon",
		Description: "Remove a window's _NET_WM_ICON property.",
	}, s.handleClearWindowIcon)
}
