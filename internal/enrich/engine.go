// Package enrich runs the metadata enrichment pass: for every record
// with empty fields it tries text inference, vocabulary matching,
// record linking, and optionally an external lookup, in that order,
// writing provenance for each fill.
package enrich

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wellcomecollection/enricher/internal/config"
	"github.com/wellcomecollection/enricher/internal/linker"
	"github.com/wellcomecollection/enricher/internal/normalize"
	"github.com/wellcomecollection/enricher/internal/provenance"
	"github.com/wellcomecollection/enricher/internal/record"
	"github.com/wellcomecollection/enricher/internal/vocab"
)

// Engine orchestrates one enrichment pass.
type Engine struct {
	cfg      config.Config
	matchers map[vocab.Kind]*vocab.Matcher
	lookup   Lookup // nil unless external lookup is configured
}

// Result summarizes a completed pass.
type Result struct {
	Records []record.Record
	Trail   provenance.Trail

	Processed int
	Failed    int // records rolled back after a provenance write failure
	Filled    int
	Unfilled  int
}

// New creates an engine. matchers must contain the subject and place
// vocabularies; lookup may be nil to disable the external strategy.
func New(cfg config.Config, matchers map[vocab.Kind]*vocab.Matcher, lookup Lookup) *Engine {
	return &Engine{cfg: cfg, matchers: matchers, lookup: lookup}
}

// Run enriches every record with at least one empty field. The input
// slice is the frozen corpus for link scoring and is never mutated;
// enriched copies are returned. Records are processed independently,
// in parallel up to cfg.Concurrency.
func (e *Engine) Run(ctx context.Context, records []record.Record) (*Result, error) {
	return e.run(ctx, records, provenance.NewLogger())
}

func (e *Engine) run(ctx context.Context, records []record.Record, logger *provenance.Logger) (*Result, error) {
	started := time.Now()

	// The corpus the linker reads is the pass-start snapshot, so
	// concurrent fills never influence each other's link scores.
	lk := linker.New(records, e.cfg.LinkThreshold)

	strategies := []Strategy{
		newTextStrategy(),
		newVocabStrategy(e.matchers),
		newLinkStrategy(lk),
	}
	if e.lookup != nil {
		strategies = append(strategies, newLookupStrategy(e.lookup, e.cfg.Lookup.Timeout))
	}

	out := make([]record.Record, len(records))
	copy(out, records)

	result := &Result{}
	var mu sync.Mutex // guards result counters

	workers := e.cfg.Concurrency
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, workers)

	for i := range out {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			filled, unfilled, err := e.enrichRecord(ctx, &out[idx], strategies, logger)

			mu.Lock()
			defer mu.Unlock()
			result.Processed++
			if err != nil {
				// Roll back every fill on this record so its log and
				// the trail stay consistent.
				slog.Error("Record failed, rolling back", "id", records[idx].ID, "error", err)
				out[idx] = records[idx]
				logger.Discard(records[idx].ID)
				result.Failed++
				return
			}
			result.Filled += filled
			result.Unfilled += unfilled

			if result.Processed%1000 == 0 {
				slog.Debug("Enriching", "processed", result.Processed, "total", len(out))
			}
		}(i)
	}

	wg.Wait()

	result.Records = out
	result.Trail = logger.Trail()

	slog.Info("Enrichment pass complete",
		"run_id", result.Trail.RunID,
		"records", result.Processed,
		"failed", result.Failed,
		"fields_filled", result.Filled,
		"fields_unresolved", result.Unfilled,
		"duration", time.Since(started).Round(time.Millisecond))

	return result, nil
}

// enrichRecord fills the record's empty fields and resolves controlled
// terms for its free-text fields. Returns the fill and unresolved
// counts, or an error when a provenance write failed and the caller
// must roll the record back.
func (e *Engine) enrichRecord(ctx context.Context, rec *record.Record, strategies []Strategy, logger *provenance.Logger) (filled, unfilled int, err error) {
	for _, field := range record.EnrichableFields() {
		if rec.HasField(field) {
			continue
		}

		won := false
		for _, strategy := range strategies {
			proposal, ok := strategy.Attempt(ctx, rec, field)
			if !ok || proposal.Confidence < e.cfg.FillThreshold {
				continue
			}
			if !applyFill(rec, field, proposal.Value) {
				// The value did not survive application (e.g. an
				// unparseable date); try the next strategy.
				continue
			}

			entry := record.ChangeEntry{
				RecordID:   rec.ID,
				Field:      field,
				NewValue:   proposal.Value,
				Strategy:   strategy.Name(),
				Confidence: proposal.Confidence,
				Timestamp:  time.Now().UTC(),
			}
			if err := logger.Append(rec, entry); err != nil {
				return filled, unfilled, err
			}

			filled++
			won = true
			break
		}

		if !won {
			rec.FlagUnresolved(field)
			unfilled++
		}
	}

	if err := e.resolveTerms(rec, logger); err != nil {
		return filled, unfilled, err
	}

	return filled, unfilled, nil
}

// resolveTerms maps the record's free-text location and subjects onto
// controlled-vocabulary terms. Each resolution is provenance-logged
// under its own field name; already-resolved fields are skipped, so a
// second pass writes nothing.
func (e *Engine) resolveTerms(rec *record.Record, logger *provenance.Logger) error {
	if m := e.matchers[vocab.KindPlaces]; m != nil && rec.Location != "" && rec.LocationResolved == "" {
		if match, ok := m.Match(rec.Location); ok {
			rec.LocationResolved = match.Term.Canonical
			entry := record.ChangeEntry{
				RecordID:   rec.ID,
				Field:      record.FieldLocationResolved,
				NewValue:   match.Term.Canonical,
				Strategy:   record.StrategyVocabularyMatch,
				Confidence: match.Confidence,
				Timestamp:  time.Now().UTC(),
			}
			if err := logger.Append(rec, entry); err != nil {
				return err
			}
		}
	}

	if m := e.matchers[vocab.KindSubjects]; m != nil && len(rec.Subjects) > 0 && len(rec.SubjectsResolved) == 0 {
		var resolved []string
		minConfidence := 1.0
		seen := map[string]bool{}
		for _, subject := range rec.Subjects {
			match, ok := m.Match(subject)
			if !ok || seen[match.Term.Canonical] {
				continue
			}
			seen[match.Term.Canonical] = true
			resolved = append(resolved, match.Term.Canonical)
			if match.Confidence < minConfidence {
				minConfidence = match.Confidence
			}
		}
		if len(resolved) > 0 {
			rec.SubjectsResolved = resolved
			entry := record.ChangeEntry{
				RecordID:   rec.ID,
				Field:      record.FieldSubjectsResolved,
				NewValue:   joinList(resolved),
				Strategy:   record.StrategyVocabularyMatch,
				Confidence: minConfidence,
				Timestamp:  time.Now().UTC(),
			}
			if err := logger.Append(rec, entry); err != nil {
				return err
			}
		}
	}

	return nil
}

// applyFill writes a proposed value into the record's typed field.
// Returns false when the value cannot be applied.
func applyFill(rec *record.Record, field, value string) bool {
	switch field {
	case record.FieldDate:
		parsed, ok := normalize.ParseDate(value)
		if !ok {
			return false
		}
		parsed.Label = value
		rec.Date = &parsed
		return true
	case record.FieldLocation:
		rec.Location = value
		return true
	case record.FieldSubjects:
		rec.Subjects = splitList(value)
		return len(rec.Subjects) > 0
	case record.FieldCreators:
		rec.Creators = splitList(value)
		return len(rec.Creators) > 0
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func joinList(values []string) string {
	return strings.Join(values, "; ")
}
