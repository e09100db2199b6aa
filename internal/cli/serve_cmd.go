package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCmd(e *env) *cobra.Command {
	var (
		addr     string
		jobsFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and any scheduled jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := e.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.LoadJobs(ctx, jobsFile); err != nil {
				return err
			}
			return a.Serve(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides LISTEN_ADDR)")
	cmd.Flags().StringVar(&jobsFile, "jobs", "", "Scheduled jobs YAML file (overrides ETL_JOBS_FILE)")
	return cmd
}
