package mcpserver

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"etlapi/internal/domain"
	"etlapi/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server is the MCP server for the ETL pipeline.
// It exposes tools, resources, and prompts so AI agents can run and inspect
// pipeline runs.
type Server struct {
	mcp    *server.MCPServer
	etl    *service.ETLService
	logger *slog.Logger
}

// Deps holds the dependencies passed from the app layer to the MCP server.
type Deps struct {
	ETL     *service.ETLService
	Logger  *slog.Logger
	Version string
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	s := &Server{etl: deps.ETL, logger: deps.Logger}

	s.mcp = server.NewMCPServer(
		"etlapi-mcp",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerETLTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("mcp: starting stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult reports a failed tool call, prefixed with its machine code.
func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", domain.ErrorCode(err), err))
}

func boolPtr(v bool) *bool { return &v }
