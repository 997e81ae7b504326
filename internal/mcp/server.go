// Package mcp exposes a running renderer to MCP clients over stdio.
package mcp

import (
	"context"
	"errors"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/wallrender/internal/ipc"
)

const (
	ServerName    = "wallrender"
	ServerVersion = "0.1.0"
)

// RendererClient is the subset of the IPC client the tools need.
type RendererClient interface {
	GetStatus() (*ipc.StatusData, error)
	GetOutputs() (*ipc.OutputsData, error)
	Stop() error
}

// Server is the MCP server for inspecting and stopping a renderer.
type Server struct {
	mcpServer *mcpsdk.Server
	client    RendererClient
}

// NewServer creates a new MCP server that talks to the renderer via client.
func NewServer(client RendererClient) (*Server, error) {
	if client == nil {
		return nil, errors.New("mcp server requires a renderer client")
	}

	s := &Server{client: client}
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

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report the running wallpaper renderer: mode (windowed or root), scene, frame rate cap, viewport count and frame statistics.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_outputs",
		Description: "List the RandR outputs discovered when the renderer started and the viewports it draws into. Requested screen names with no matching connected output are reported as unmatched.",
	}, s.handleListOutputs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "stop_renderer",
		Description: "Ask the renderer to exit after the frame in progress.",
	}, s.handleStopRenderer)
}
