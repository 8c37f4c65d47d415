package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "enricher",
		Short: "Catalogue snapshot download and metadata enrichment tool",
		Long: `Enricher downloads Wellcome Collection catalogue snapshots, normalizes
record fields, and fills missing metadata using rule-based inference,
controlled-vocabulary matching, and cross-record linking. Every filled
field is written to an append-only provenance audit trail.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newCleanCmd())
	cmd.AddCommand(newEnrichCmd())
	cmd.AddCommand(newReportCmd())

	return cmd
}
