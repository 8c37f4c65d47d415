package snapshot

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const (
	// SnapshotURL is the public works snapshot of the Wellcome
	// Collection catalogue, one JSON work per line, gzip-compressed.
	SnapshotURL = "https://data.wellcomecollection.org/catalogue/v2/works.json.gz"

	// DefaultCacheDir is where downloaded snapshots are kept.
	DefaultCacheDir = "~/.cache/wellcome/snapshots"
)

// DownloadConfig configures snapshot downloading.
type DownloadConfig struct {
	CacheDir      string
	ForceDownload bool
	URL           string // overrides SnapshotURL, used by tests
}

// Downloader fetches and caches catalogue snapshots.
type Downloader struct {
	config DownloadConfig
	client *http.Client
}

// NewDownloader creates a snapshot downloader.
func NewDownloader(config DownloadConfig) *Downloader {
	if config.CacheDir == "" {
		config.CacheDir = DefaultCacheDir
	}
	if config.URL == "" {
		config.URL = SnapshotURL
	}

	// Expand ~ to home directory
	if strings.HasPrefix(config.CacheDir, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			config.CacheDir = filepath.Join(homeDir, config.CacheDir[1:])
		}
	}

	return &Downloader{
		config: config,
		client: &http.Client{},
	}
}

// Download fetches the snapshot unless a cached copy exists. Returns
// the path to the cached file.
func (d *Downloader) Download() (string, error) {
	if err := os.MkdirAll(d.config.CacheDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	filename := filepath.Base(d.config.URL)
	cachedPath := filepath.Join(d.config.CacheDir, filename)

	if !d.config.ForceDownload {
		if _, err := os.Stat(cachedPath); err == nil {
			slog.Info("Using cached snapshot", "path", cachedPath)
			return cachedPath, nil
		}
	}

	slog.Info("Downloading snapshot", "url", d.config.URL)

	if err := d.downloadFile(d.config.URL, cachedPath); err != nil {
		return "", fmt.Errorf("failed to download snapshot: %w", err)
	}

	slog.Info("Snapshot downloaded", "path", cachedPath)
	return cachedPath, nil
}

// downloadFile streams a URL to a local path via a temp file so a
// partial download never shadows a good cached copy.
func (d *Downloader) downloadFile(url, destPath string) error {
	resp, err := d.client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	tempPath := destPath + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	totalSize := resp.ContentLength
	downloaded := int64(0)

	buf := make([]byte, 32*1024)
	for {
		nr, er := resp.Body.Read(buf)
		if nr > 0 {
			nw, ew := out.Write(buf[:nr])
			downloaded += int64(nw)

			// Log progress every 10MB
			if totalSize > 0 && downloaded%(10*1024*1024) < int64(nr) {
				progress := float64(downloaded) / float64(totalSize) * 100
				slog.Debug("Download progress",
					"downloaded_mb", downloaded/(1024*1024),
					"total_mb", totalSize/(1024*1024),
					"progress", fmt.Sprintf("%.1f%%", progress))
			}

			if ew != nil {
				err = ew
				break
			}
			if nr != nw {
				err = io.ErrShortWrite
				break
			}
		}
		if er != nil {
			if er != io.EOF {
				err = er
			}
			break
		}
	}

	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("download failed: %w", err)
	}

	if err := out.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to flush file: %w", err)
	}

	if err := os.Rename(tempPath, destPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to move file: %w", err)
	}

	return nil
}

// CachePath returns where the snapshot would be cached.
func (d *Downloader) CachePath() string {
	return filepath.Join(d.config.CacheDir, filepath.Base(d.config.URL))
}

// ClearCache removes all cached snapshot files.
func (d *Downloader) ClearCache() error {
	slog.Info("Clearing cache", "path", d.config.CacheDir)
	return os.RemoveAll(d.config.CacheDir)
}
