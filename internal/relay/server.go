// Package relay exposes captured prompts and the redaction service to
// MCP clients over stdio, so an agent or editor can pull the most
// recent mediated exchange out of the pipeline.
package relay

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/promptveil/promptveil/internal/backend"
	"github.com/promptveil/promptveil/internal/capture"
)

// Config holds relay server configuration.
type Config struct {
	BackendURL string
	CaptureDir string
}

// Server wraps the MCP SDK server over the capture store and the
// redaction client.
type Server struct {
	mcpServer *mcpsdk.Server
	store     *capture.Store
	client    *backend.Client
}

// New creates a relay server with its capture store and redaction
// client wired.
func New(cfg Config) (*Server, error) {
	dir := cfg.CaptureDir
	if dir == "" {
		dir = capture.DefaultDir()
	}
	store, err := capture.NewStore(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture store: %w", err)
	}

	s := &Server{
		store:  store,
		client: backend.NewClient(cfg.BackendURL, 0),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "promptveil",
			Version: "0.1.0",
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the relay on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// registerTools adds all promptveil tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "promptveil_last_capture",
		Description: "Return the most recent captured prompt or reply, with its redaction context.",
	}, s.handleLastCapture)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "promptveil_remember",
		Description: "Store a text as a capture record so other surfaces can retrieve it later.",
	}, s.handleRemember)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "promptveil_scan",
		Description: "Scan a text for sensitive data and return the redacted variant with detected categories.",
	}, s.handleScan)
}
