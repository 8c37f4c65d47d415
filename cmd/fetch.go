package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wellcomecollection/enricher/internal/snapshot"
)

func newFetchCmd() *cobra.Command {
	var cacheDir string
	var force bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the catalogue works snapshot",
		Long: `Download the Wellcome Collection works snapshot (works.json.gz) into
the local cache. Subsequent runs reuse the cached file unless --force
is given.`,
		Example: `  # Download (or reuse) the snapshot
  enricher fetch

  # Re-download even if cached
  enricher fetch --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			downloader := snapshot.NewDownloader(snapshot.DownloadConfig{
				CacheDir:      cacheDir,
				ForceDownload: force,
			})

			path, err := downloader.Download()
			if err != nil {
				return err
			}

			fmt.Printf("Snapshot available at: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Snapshot cache directory (default ~/.cache/wellcome/snapshots)")
	cmd.Flags().BoolVar(&force, "force", false, "Re-download even if a cached snapshot exists")

	return cmd
}
