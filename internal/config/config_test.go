package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.MatchThreshold != 0.5 {
		t.Errorf("Expected match threshold 0.5, got %v", cfg.MatchThreshold)
	}
	if cfg.LinkThreshold != 0.4 {
		t.Errorf("Expected link threshold 0.4, got %v", cfg.LinkThreshold)
	}
	if cfg.FillThreshold != 0.5 {
		t.Errorf("Expected fill threshold 0.5, got %v", cfg.FillThreshold)
	}
	if cfg.Concurrency != 1 {
		t.Errorf("Expected concurrency 1, got %d", cfg.Concurrency)
	}
	if cfg.Lookup.Enabled {
		t.Error("External lookup must be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults must validate: %v", err)
	}
}

func TestLoadAppliesDefaultsForUnsetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "link_threshold: 0.6\nconcurrency: 4\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LinkThreshold != 0.6 {
		t.Errorf("Expected link threshold 0.6, got %v", cfg.LinkThreshold)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Expected concurrency 4, got %d", cfg.Concurrency)
	}
	if cfg.MatchThreshold != 0.5 {
		t.Errorf("Unset fields must keep defaults, got match threshold %v", cfg.MatchThreshold)
	}
	if cfg.Lookup.Timeout != 10*time.Second {
		t.Errorf("Unset lookup timeout must keep default, got %v", cfg.Lookup.Timeout)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg != Default() {
		t.Error("Empty path must return defaults")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Expected an error for a missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"match threshold above 1", func(c *Config) { c.MatchThreshold = 1.5 }},
		{"negative link threshold", func(c *Config) { c.LinkThreshold = -0.1 }},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }},
		{"enabled lookup without timeout", func(c *Config) {
			c.Lookup.Enabled = true
			c.Lookup.Timeout = 0
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected a validation error")
			}
		})
	}
}
