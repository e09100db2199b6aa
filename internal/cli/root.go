// Package cli implements the etlapi command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"etlapi/internal/app"
	"etlapi/internal/config"
	"etlapi/internal/domain"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		return 1
	}
	return 0
}

// formatError prefixes pipeline failures with their machine code. Flag and
// config errors carry no code and print as they are.
func formatError(err error) string {
	code := domain.ErrorCode(err)
	if code == domain.CodeInternal {
		return fmt.Sprintf("Error: %v", err)
	}
	return fmt.Sprintf("Error [%s]: %v", code, err)
}

// env carries state resolved once in PersistentPreRunE.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	var (
		envFile string
		e       env
	)

	rootCmd := &cobra.Command{
		Use:           "etlapi",
		Short:         "Extract-Transform-Load API",
		Long:          "Runs the ETL pipeline as an HTTP API, a one-shot command or an MCP tool server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			if err := config.LoadDotEnv(envFile); err != nil {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			e.cfg = cfg
			e.logger = cfg.NewLogger()
			slog.SetDefault(e.logger)
			for _, w := range cfg.Warnings {
				e.logger.Warn(w)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before the environment (missing file is ignored)")

	rootCmd.AddCommand(newServeCmd(&e))
	rootCmd.AddCommand(newRunCmd(&e))
	rootCmd.AddCommand(newSourcesCmd(&e))
	rootCmd.AddCommand(newMCPCmd(&e))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// newApp builds the composition root for one command invocation.
func (e *env) newApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, e.cfg, e.logger, version)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
