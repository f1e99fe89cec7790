package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/tool-ingestor/internal/bootstrap"
)

// serveCommand runs the dashboard HTTP server.
func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.NewApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("initialize application: %w", err)
			}
			defer app.Close()

			return app.Serve(cmd.Context())
		},
	}
}
