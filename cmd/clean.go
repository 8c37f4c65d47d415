package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wellcomecollection/enricher/internal/normalize"
	"github.com/wellcomecollection/enricher/internal/snapshot"
)

func newCleanCmd() *cobra.Command {
	var input string
	var output string
	var limit int

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Parse and normalize a raw snapshot",
		Long: `Parse a raw snapshot (works.json.gz) into flattened records and
normalize their fields: canonical dates, inverted creator names,
tidied locations, deduplicated subjects. Writes JSONL, CSV, or Parquet
depending on the output extension.`,
		Example: `  # Normalize the first 10000 works into JSONL
  enricher clean --input works.json.gz --output records.jsonl --limit 10000

  # Full snapshot to Parquet
  enricher clean --input works.json.gz --output records.parquet --limit -1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := snapshot.NewStore()

			slog.Info("Loading snapshot", "path", input, "limit", limit)
			records, err := store.LoadSample(input, limit)
			if err != nil {
				return fmt.Errorf("failed to load snapshot: %w", err)
			}

			normalizer := normalize.New()
			for i := range records {
				records[i] = normalizer.Normalize(records[i])
			}
			slog.Info("Records normalized", "count", len(records))

			if err := store.Save(records, output); err != nil {
				return fmt.Errorf("failed to save records: %w", err)
			}

			fmt.Printf("Wrote %d records to %s\n", len(records), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Path to raw snapshot (required)")
	cmd.Flags().StringVar(&output, "output", "records.jsonl", "Output path (.jsonl, .csv, or .parquet)")
	cmd.Flags().IntVar(&limit, "limit", 10000, "Number of works to load (-1 for all)")

	_ = cmd.MarkFlagRequired("input")
	return cmd
}
