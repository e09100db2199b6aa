package mcpserver

import (
	"context"
	"fmt"

	"etlapi/internal/domain"
	"etlapi/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerETLTools() {
	s.mcp.AddTool(mcp.NewTool("run_etl",
		mcp.WithDescription("🛑 DESTRUCTIVE: Run the pipeline once: extract the source, multiply original_column by one random factor into transformed_column, and replace the destination contents."),
		mcp.WithString("source", mcp.Description("Source name: api or csv (use list_etl_sources)"), mcp.Required()),
		mcp.WithString("destination", mcp.Description("Destination: database or csv"), mcp.Required()),
		mcp.WithString("dbname", mcp.Description("Database for destination=database: sqlite, postgresql, or any other configured target (optional, server default otherwise)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRunETL)

	s.mcp.AddTool(mcp.NewTool("list_etl_sources",
		mcp.WithDescription("List available ETL sources with their resolved configuration"),
	), s.handleListETLSources)

	s.mcp.AddTool(mcp.NewTool("preview_etl_source",
		mcp.WithDescription("Preview data from an ETL source without transforming or persisting anything"),
		mcp.WithString("source", mcp.Description("Source name"), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Rows to return (default %d, max %d)", service.DefaultPreviewLimit, service.MaxPreviewLimit))),
	), s.handlePreviewETLSource)

	s.mcp.AddTool(mcp.NewTool("list_etl_runs",
		mcp.WithDescription("List recent pipeline runs, newest first"),
	), s.handleListETLRuns)
}

func (s *Server) handleRunETL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobReq := domain.JobRequest{
		Source:      req.GetString("source", ""),
		Destination: req.GetString("destination", ""),
		DBName:      req.GetString("dbname", ""),
	}
	if jobReq.Source == "" || jobReq.Destination == "" {
		return errorResult(domain.ErrValidation("source and destination are required")), nil
	}

	runLog, err := s.etl.Run(ctx, jobReq, "")
	if err != nil {
		return errorResult(fmt.Errorf("run etl: %w", err)), nil
	}
	return jsonResult(runLog)
}

func (s *Server) handleListETLSources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.etl.ListSources())
}

func (s *Server) handlePreviewETLSource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source := req.GetString("source", "")
	if source == "" {
		return errorResult(domain.ErrValidation("source is required")), nil
	}

	preview, err := s.etl.Preview(ctx, source, req.GetInt("limit", service.DefaultPreviewLimit))
	if err != nil {
		return errorResult(fmt.Errorf("preview source: %w", err)), nil
	}
	return jsonResult(preview)
}

func (s *Server) handleListETLRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.etl.ListRuns())
}
