package provenance

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/wellcomecollection/enricher/internal/record"
)

func TestAppendWritesBothLogs(t *testing.T) {
	logger := NewLogger()
	rec := record.Record{ID: "w1"}

	entry := record.ChangeEntry{
		RecordID:   "w1",
		Field:      record.FieldDate,
		NewValue:   "1920",
		Strategy:   record.StrategyRecordLink,
		Confidence: 0.8,
		Timestamp:  time.Now().UTC(),
	}
	if err := logger.Append(&rec, entry); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	trail := logger.Trail()
	if len(trail.Entries) != 1 {
		t.Fatalf("Expected 1 trail entry, got %d", len(trail.Entries))
	}
	if len(rec.Provenance) != 1 {
		t.Fatalf("Expected 1 record log entry, got %d", len(rec.Provenance))
	}
	if trail.Entries[0] != rec.Provenance[0] {
		t.Error("Trail and record log entries must be identical")
	}
	if trail.RunID == "" {
		t.Error("Trail must carry a run id")
	}
}

func TestAppendFailureTouchesNeitherLog(t *testing.T) {
	logger := NewLogger()
	logger.FailAppend = func(record.ChangeEntry) error {
		return errors.New("disk full")
	}

	rec := record.Record{ID: "w1"}
	err := logger.Append(&rec, record.ChangeEntry{RecordID: "w1", Field: record.FieldDate})
	if err == nil {
		t.Fatal("Expected an error")
	}

	if len(logger.Trail().Entries) != 0 {
		t.Error("Failed append must not reach the trail")
	}
	if len(rec.Provenance) != 0 {
		t.Error("Failed append must not reach the record log")
	}
}

func TestDiscardRemovesOnlyOneRecord(t *testing.T) {
	logger := NewLogger()
	w1 := record.Record{ID: "w1"}
	w2 := record.Record{ID: "w2"}

	for _, pair := range []struct {
		rec   *record.Record
		field string
	}{
		{&w1, record.FieldDate},
		{&w2, record.FieldLocation},
		{&w1, record.FieldSubjects},
	} {
		entry := record.ChangeEntry{RecordID: pair.rec.ID, Field: pair.field}
		if err := logger.Append(pair.rec, entry); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	logger.Discard("w1")

	trail := logger.Trail()
	if len(trail.Entries) != 1 {
		t.Fatalf("Expected 1 surviving entry, got %d", len(trail.Entries))
	}
	if trail.Entries[0].RecordID != "w2" {
		t.Errorf("Expected the w2 entry to survive, got %s", trail.Entries[0].RecordID)
	}
}

func TestTrailReturnsCopy(t *testing.T) {
	logger := NewLogger()
	rec := record.Record{ID: "w1"}
	if err := logger.Append(&rec, record.ChangeEntry{RecordID: "w1", Field: record.FieldDate}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	trail := logger.Trail()
	trail.Entries[0].RecordID = "tampered"

	if logger.Trail().Entries[0].RecordID != "w1" {
		t.Error("Mutating a returned trail must not affect the logger")
	}
}

func TestSaveAndLoadTrail(t *testing.T) {
	logger := NewLogger()
	rec := record.Record{ID: "w1"}
	entry := record.ChangeEntry{
		RecordID:   "w1",
		Field:      record.FieldDate,
		NewValue:   "1920",
		Strategy:   record.StrategyTextInference,
		Confidence: 0.7,
		Timestamp:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := logger.Append(&rec, entry); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "audit", "audit-test.yaml")
	if err := logger.Trail().SaveYAML(path); err != nil {
		t.Fatalf("SaveYAML failed: %v", err)
	}

	loaded, err := LoadTrail(path)
	if err != nil {
		t.Fatalf("LoadTrail failed: %v", err)
	}

	if loaded.RunID != logger.Trail().RunID {
		t.Errorf("Run id mismatch: %s vs %s", loaded.RunID, logger.Trail().RunID)
	}
	if len(loaded.Entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(loaded.Entries))
	}
	got := loaded.Entries[0]
	if got.RecordID != "w1" || got.Field != record.FieldDate || got.NewValue != "1920" {
		t.Errorf("Entry did not survive the roundtrip: %+v", got)
	}
	if got.Strategy != record.StrategyTextInference {
		t.Errorf("Expected text-inference strategy, got %s", got.Strategy)
	}
}

func TestLoadTrailMissingFile(t *testing.T) {
	if _, err := LoadTrail(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Expected an error for a missing file")
	}
}

func TestTrailFilename(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
	got := TrailFilename("audit", at)
	want := filepath.Join("audit", "audit-2024-03-01_12-30-45.yaml")
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestConcurrentAppends(t *testing.T) {
	logger := NewLogger()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(id string) {
			defer func() { done <- struct{}{} }()
			rec := record.Record{ID: id}
			for j := 0; j < 50; j++ {
				entry := record.ChangeEntry{RecordID: id, Field: record.FieldDate}
				if err := logger.Append(&rec, entry); err != nil {
					t.Errorf("Append failed: %v", err)
					return
				}
			}
		}(string(rune('a' + i)))
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	if got := len(logger.Trail().Entries); got != 400 {
		t.Errorf("Expected 400 entries, got %d", got)
	}
}
