// Package cmd implements the command-line interface for the ingestion
// service.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "tool-ingestor",
		Short: "AI-tool directory ingestion service",
		Long:  `Ingests scraped AI-tool records into the deduplicated directory store and serves the scraping dashboard API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yml)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tool-ingestor version %s\n", version)
		},
	})

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(ingestCommand())
}

const version = "dev"
