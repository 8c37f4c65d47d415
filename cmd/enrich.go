package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wellcomecollection/enricher/internal/config"
	"github.com/wellcomecollection/enricher/internal/enrich"
	"github.com/wellcomecollection/enricher/internal/lookup"
	"github.com/wellcomecollection/enricher/internal/normalize"
	"github.com/wellcomecollection/enricher/internal/provenance"
	"github.com/wellcomecollection/enricher/internal/report"
	"github.com/wellcomecollection/enricher/internal/snapshot"
	"github.com/wellcomecollection/enricher/internal/vocab"
)

func newEnrichCmd() *cobra.Command {
	var input string
	var output string
	var auditDir string
	var configPath string
	var vocabDir string
	var limit int
	var concurrency int
	var externalLookup bool

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Fill missing record metadata and write provenance",
		Long: `Run the enrichment pass over a snapshot: normalize every record,
then fill empty fields using text inference, vocabulary matching,
record linking, and (optionally) an external lookup, in that order.
Each fill is logged to the record's provenance and to a pass-wide
audit trail saved next to the enriched output.`,
		Example: `  # Enrich a cleaned snapshot
  enricher enrich --input records.jsonl --output enriched.jsonl

  # Parallel pass with the external lookup enabled
  enricher enrich --input records.jsonl --output enriched.jsonl \
    --concurrency 8 --external-lookup`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if vocabDir != "" {
				cfg.VocabDir = vocabDir
			}
			if concurrency > 0 {
				cfg.Concurrency = concurrency
			}
			if externalLookup {
				cfg.Lookup.Enabled = true
			}

			return executeEnrich(cmd.Context(), cfg, input, output, auditDir, limit)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Path to snapshot to enrich (required)")
	cmd.Flags().StringVar(&output, "output", "enriched.jsonl", "Output path (.jsonl, .csv, or .parquet)")
	cmd.Flags().StringVar(&auditDir, "audit-dir", "audit", "Directory for the audit trail YAML")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config YAML")
	cmd.Flags().StringVar(&vocabDir, "vocab-dir", "", "Directory holding subjects.yaml and places.yaml")
	cmd.Flags().IntVar(&limit, "limit", -1, "Number of records to load (-1 for all)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Records enriched in parallel (default from config)")
	cmd.Flags().BoolVar(&externalLookup, "external-lookup", false, "Enable the external lookup strategy")

	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func executeEnrich(ctx context.Context, cfg config.Config, input, output, auditDir string, limit int) error {
	slog.Info("Starting enrichment", "input", input, "output", output, "concurrency", cfg.Concurrency)

	// A missing vocabulary is fatal; enrichment cannot start without
	// its controlled vocabularies.
	vocabs, err := vocab.LoadDir(cfg.VocabDir)
	if err != nil {
		return fmt.Errorf("vocabulary load failed: %w", err)
	}

	matchers := make(map[vocab.Kind]*vocab.Matcher, len(vocabs))
	for kind, v := range vocabs {
		matchers[kind] = vocab.NewMatcher(v, cfg.MatchThreshold)
	}

	store := snapshot.NewStore()
	records, err := store.LoadSample(input, limit)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	slog.Info("Snapshot loaded", "records", len(records))

	normalizer := normalize.New()
	for i := range records {
		records[i] = normalizer.Normalize(records[i])
	}
	before := report.MeasureCoverage(records)

	var lkp enrich.Lookup
	if cfg.Lookup.Enabled {
		lkp = lookup.NewGemini(cfg.Lookup.Model)
		slog.Info("External lookup enabled", "model", cfg.Lookup.Model, "timeout", cfg.Lookup.Timeout)
	}

	engine := enrich.New(cfg, matchers, lkp)
	result, err := engine.Run(ctx, records)
	if err != nil {
		return fmt.Errorf("enrichment pass failed: %w", err)
	}

	if err := store.Save(result.Records, output); err != nil {
		return fmt.Errorf("failed to save enriched records (pass processed %d): %w", result.Processed, err)
	}

	auditPath := provenance.TrailFilename(auditDir, time.Now())
	if err := result.Trail.SaveYAML(auditPath); err != nil {
		return fmt.Errorf("failed to save audit trail (pass processed %d): %w", result.Processed, err)
	}

	report.Summarize(result.Trail).Print(os.Stdout)
	fmt.Println()
	report.PrintCoverageDelta(os.Stdout, before, report.MeasureCoverage(result.Records))
	fmt.Printf("\nEnriched records: %s\nAudit trail: %s\n", output, auditPath)
	return nil
}
