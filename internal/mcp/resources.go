package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	sourcesURI = "etl://sources"
	runsURI    = "etl://runs"
)

func (s *Server) registerResources() {
	// ── etl://sources ──────────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		sourcesURI,
		"ETL Sources",
		mcp.WithResourceDescription("Registered sources and their resolved configuration"),
		mcp.WithMIMEType("application/json"),
	), s.handleSourcesResource)

	// ── etl://runs ─────────────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		runsURI,
		"Recent ETL Runs",
		mcp.WithResourceDescription("Run history, newest first"),
		mcp.WithMIMEType("application/json"),
	), s.handleRunsResource)
}

func (s *Server) handleSourcesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(sourcesURI, s.etl.ListSources())
}

func (s *Server) handleRunsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(runsURI, s.etl.ListRuns())
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
