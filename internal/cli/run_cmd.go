package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"etlapi/internal/domain"
)

func newRunCmd(e *env) *cobra.Command {
	var req domain.JobRequest

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and print the run log",
		Example: `  etlapi run --source csv --destination csv
  etlapi run --source api --destination database --dbname sqlite`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := e.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			log, runErr := a.ETL.Run(ctx, req, "")
			if log != nil {
				if err := printJSON(cmd.OutOrStdout(), log); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&req.Source, "source", "", "Source name (api, csv)")
	cmd.Flags().StringVar(&req.Destination, "destination", "", "Destination (database, csv)")
	cmd.Flags().StringVar(&req.DBName, "dbname", "", "Database for destination=database (default DEFAULT_DBNAME)")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("destination")
	return cmd
}
