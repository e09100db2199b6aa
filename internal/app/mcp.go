package app

import (
	mcpserver "etlapi/internal/mcp"
)

// ServeMCP runs the MCP tool server on stdin/stdout until the client
// disconnects. Logs must not go to stdout in this mode.
func (a *App) ServeMCP() error {
	srv := mcpserver.New(mcpserver.Deps{
		ETL:     a.ETL,
		Logger:  a.logger,
		Version: a.version,
	})
	return srv.ServeStdio()
}
