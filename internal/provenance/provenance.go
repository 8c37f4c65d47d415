// Package provenance maintains the append-only audit trail of field
// changes made during an enrichment pass.
package provenance

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/wellcomecollection/enricher/internal/record"
)

// Trail is the pass-wide audit log. Entries are never edited or
// removed once appended.
type Trail struct {
	RunID     string               `yaml:"run_id"`
	StartedAt time.Time            `yaml:"started_at"`
	Entries   []record.ChangeEntry `yaml:"entries"`
}

// Logger appends change entries to a record's own log and to the
// pass-wide trail. Appends are serialized; the two logs either both
// receive the entry or neither does.
type Logger struct {
	mu    sync.Mutex
	trail Trail

	// FailAppend, when set, runs before every append and can veto it.
	// Test seam for provenance write failures.
	FailAppend func(record.ChangeEntry) error
}

// NewLogger starts a fresh trail with a unique run id.
func NewLogger() *Logger {
	return &Logger{
		trail: Trail{
			RunID:     uuid.NewString(),
			StartedAt: time.Now().UTC(),
		},
	}
}

// Append writes one change entry to the trail and to the record's
// provenance log. On failure neither log is modified.
func (l *Logger) Append(rec *record.Record, entry record.ChangeEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.FailAppend != nil {
		if err := l.FailAppend(entry); err != nil {
			return fmt.Errorf("provenance write failed for record %s: %w", rec.ID, err)
		}
	}

	l.trail.Entries = append(l.trail.Entries, entry)
	rec.Provenance = append(rec.Provenance, entry)
	return nil
}

// Discard removes the trail entries for one record, used when that
// record's fills are rolled back after a downstream failure. This is
// the only mutation of existing trail state and it only runs before a
// pass commits.
func (l *Logger) Discard(recordID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.trail.Entries[:0]
	for _, e := range l.trail.Entries {
		if e.RecordID != recordID {
			kept = append(kept, e)
		}
	}
	l.trail.Entries = kept
}

// Trail returns a copy of the pass-wide trail.
func (l *Logger) Trail() Trail {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := l.trail
	out.Entries = make([]record.ChangeEntry, len(l.trail.Entries))
	copy(out.Entries, l.trail.Entries)
	return out
}

// SaveYAML writes the trail to path, creating parent directories.
func (t Trail) SaveYAML(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create audit directory: %w", err)
		}
	}

	data, err := yaml.Marshal(&t)
	if err != nil {
		return fmt.Errorf("failed to marshal audit trail: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write audit trail: %w", err)
	}

	return nil
}

// LoadTrail reads a trail previously written by SaveYAML.
func LoadTrail(path string) (Trail, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Trail{}, fmt.Errorf("failed to read audit trail: %w", err)
	}

	var trail Trail
	if err := yaml.Unmarshal(data, &trail); err != nil {
		return Trail{}, fmt.Errorf("failed to parse audit trail: %w", err)
	}

	return trail, nil
}

// TrailFilename builds the conventional timestamped audit filename.
func TrailFilename(dir string, started time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("audit-%s.yaml", started.Format("2006-01-02_15-04-05")))
}
