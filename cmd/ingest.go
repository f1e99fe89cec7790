package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/tool-ingestor/internal/bootstrap"
	"github.com/jonesrussell/tool-ingestor/internal/models"
)

// ingestCommand runs a single ingestion job and exits. Useful for cron
// runs and local testing without the dashboard.
func ingestCommand() *cobra.Command {
	var maxItems int

	cmd := &cobra.Command{
		Use:   "ingest <spider>",
		Short: "Run one ingestion job for a spider and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.NewApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("initialize application: %w", err)
			}
			defer app.Close()

			job, err := app.Coordinator.Run(cmd.Context(), args[0], maxItems)
			if err != nil {
				return fmt.Errorf("run ingestion job: %w", err)
			}

			fmt.Printf("job %s %s: processed=%d successful=%d failed=%d duplicates=%d\n",
				job.ID,
				job.State,
				job.Stats.TotalProcessed,
				job.Stats.SuccessfulSubmissions,
				job.Stats.FailedSubmissions,
				job.Stats.DuplicatesSkipped,
			)

			if job.State == models.JobFailed {
				return fmt.Errorf("job failed: %s", job.Error)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxItems, "max-items", 0, "cap on records to process (0 uses the configured default)")
	return cmd
}
