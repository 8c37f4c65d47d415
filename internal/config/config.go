// Package config provides configuration for the enrichment pipeline.
// A Config is loaded once, validated, and passed by value to component
// constructors; nothing reads it from ambient state afterwards.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the tunable heuristic thresholds. These are starting
// points, not calibrated values.
const (
	DefaultMatchThreshold = 0.5
	DefaultLinkThreshold  = 0.4
	DefaultFillThreshold  = 0.5
	DefaultLookupTimeout  = 10 * time.Second
	DefaultConcurrency    = 1
)

// Config holds all pipeline settings.
type Config struct {
	// MatchThreshold is the minimum confidence for a vocabulary match.
	MatchThreshold float64 `yaml:"match_threshold"`

	// LinkThreshold is the minimum similarity for a link candidate.
	LinkThreshold float64 `yaml:"link_threshold"`

	// FillThreshold is the minimum confidence at which a strategy's
	// proposal is accepted and written to the record.
	FillThreshold float64 `yaml:"fill_threshold"`

	// Concurrency is the number of records enriched in parallel.
	Concurrency int `yaml:"concurrency"`

	// VocabDir holds subjects.yaml and places.yaml.
	VocabDir string `yaml:"vocab_dir"`

	// CacheDir is where downloaded snapshots are kept.
	CacheDir string `yaml:"cache_dir"`

	Lookup LookupConfig `yaml:"lookup"`
}

// LookupConfig configures the optional external-lookup strategy. The
// strategy stays disabled unless Enabled is set.
type LookupConfig struct {
	Enabled bool          `yaml:"enabled"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		MatchThreshold: DefaultMatchThreshold,
		LinkThreshold:  DefaultLinkThreshold,
		FillThreshold:  DefaultFillThreshold,
		Concurrency:    DefaultConcurrency,
		VocabDir:       "vocabularies",
		Lookup: LookupConfig{
			Model:   "gemini-2.0-flash",
			Timeout: DefaultLookupTimeout,
		},
	}
}

// Load reads a YAML config file and applies defaults for anything the
// file leaves unset. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks threshold ranges and concurrency.
func (c Config) Validate() error {
	for name, v := range map[string]float64{
		"match_threshold": c.MatchThreshold,
		"link_threshold":  c.LinkThreshold,
		"fill_threshold":  c.FillThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", name, v)
		}
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Lookup.Enabled && c.Lookup.Timeout <= 0 {
		return fmt.Errorf("lookup.timeout must be positive when lookup is enabled")
	}
	return nil
}
