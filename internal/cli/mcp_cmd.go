package cli

import (
	"github.com/spf13/cobra"
)

func newMCPCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the pipeline as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.ServeMCP()
		},
	}
}
