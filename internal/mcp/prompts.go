package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("data_pipeline",
		mcp.WithPromptDescription("Inspect a source, run the pipeline into a destination and verify the run"),
		mcp.WithArgument("source",
			mcp.ArgumentDescription("ETL source name (api or csv)"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("destination",
			mcp.ArgumentDescription("database or csv"),
			mcp.RequiredArgument(),
		),
	), s.handleDataPipelinePrompt)
}

func (s *Server) handleDataPipelinePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	source := req.Params.Arguments["source"]
	destination := req.Params.Arguments["destination"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Run the %s → %s pipeline", source, destination),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Load data from the "%s" source into "%s". Follow these steps:

1. Use list_etl_sources to check that "%s" is registered and see where it reads from
2. Use preview_etl_source to confirm the data has an original_column with numeric values
3. Use run_etl with source "%s" and destination "%s" (pass dbname when the destination is database)
4. Use list_etl_runs and report the rows written and the multiplier of the newest run

Stop and report the problem instead of running the pipeline if original_column is missing.`, source, destination, source, source, destination),
				},
			},
		},
	}, nil
}
