package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wellcomecollection/enricher/internal/provenance"
	"github.com/wellcomecollection/enricher/internal/report"
)

func newReportCmd() *cobra.Command {
	var auditPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize an enrichment audit trail",
		Long: `Read an audit trail YAML written by the enrich command and print the
pass summary: fills per field, per strategy, and confidence spread.`,
		Example: `  enricher report --audit audit/audit-2026-08-29_10-00-00.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			trail, err := provenance.LoadTrail(auditPath)
			if err != nil {
				return err
			}

			report.Summarize(trail).Print(os.Stdout)
			return nil
		},
	}

	cmd.Flags().StringVar(&auditPath, "audit", "", "Path to audit trail YAML (required)")

	_ = cmd.MarkFlagRequired("audit")
	return cmd
}
