package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/wellcomecollection/enricher/internal/linker"
	"github.com/wellcomecollection/enricher/internal/normalize"
	"github.com/wellcomecollection/enricher/internal/record"
	"github.com/wellcomecollection/enricher/internal/vocab"
)

// Proposal is a candidate value for one field, with the confidence the
// producing strategy assigns to it.
type Proposal struct {
	Value      string
	Confidence float64
}

// Strategy attempts to produce a value for one empty field of a
// record. ok=false means the strategy has nothing to offer; that is
// the expected outcome for sparse data, not an error.
type Strategy interface {
	Name() record.Strategy
	Attempt(ctx context.Context, rec *record.Record, field string) (Proposal, bool)
}

// textStrategy infers values from the record's own title and
// description text.
type textStrategy struct{}

var (
	textYearRe = regexp.MustCompile(`\b(1[0-9]{3}|20[0-2][0-9])\b`)
	// "printed in London", "published at Edinburgh", "London : J. Murray"
	textPlaceRe = regexp.MustCompile(`(?i)\b(?:printed|published|impressum)?\s*(?:in|at)\s+([A-Z][a-zA-Z]+(?:[ -][A-Z][a-zA-Z]+)?)\b`)
)

func newTextStrategy() *textStrategy {
	return &textStrategy{}
}

func (s *textStrategy) Name() record.Strategy { return record.StrategyTextInference }

func (s *textStrategy) Attempt(_ context.Context, rec *record.Record, field string) (Proposal, bool) {
	switch field {
	case record.FieldDate:
		// A year in the title is a stronger signal than one in prose.
		if m := textYearRe.FindAllString(rec.Title, 2); len(m) == 1 {
			return Proposal{Value: m[0], Confidence: 0.7}, true
		}
		if m := textYearRe.FindAllString(rec.Description, 2); len(m) == 1 {
			return Proposal{Value: m[0], Confidence: 0.6}, true
		}
	case record.FieldLocation:
		for _, text := range []string{rec.Title, rec.Description} {
			if m := textPlaceRe.FindStringSubmatch(text); m != nil {
				return Proposal{Value: m[1], Confidence: 0.6}, true
			}
		}
	}
	return Proposal{}, false
}

// vocabStrategy fills subject and location fields by matching the
// record's free text against the controlled vocabularies.
type vocabStrategy struct {
	matchers map[vocab.Kind]*vocab.Matcher
}

func newVocabStrategy(matchers map[vocab.Kind]*vocab.Matcher) *vocabStrategy {
	return &vocabStrategy{matchers: matchers}
}

func (s *vocabStrategy) Name() record.Strategy { return record.StrategyVocabularyMatch }

func (s *vocabStrategy) Attempt(_ context.Context, rec *record.Record, field string) (Proposal, bool) {
	switch field {
	case record.FieldSubjects:
		m, ok := s.bestMatch(vocab.KindSubjects, subjectFragments(rec))
		if !ok {
			return Proposal{}, false
		}
		return Proposal{Value: m.Term.Canonical, Confidence: m.Confidence}, true
	case record.FieldLocation:
		m, ok := s.bestMatch(vocab.KindPlaces, placeFragments(rec))
		if !ok {
			return Proposal{}, false
		}
		return Proposal{Value: m.Term.Canonical, Confidence: m.Confidence}, true
	}
	return Proposal{}, false
}

func (s *vocabStrategy) bestMatch(kind vocab.Kind, fragments []string) (vocab.Match, bool) {
	matcher, ok := s.matchers[kind]
	if !ok {
		return vocab.Match{}, false
	}
	best := vocab.Match{}
	found := false
	for _, frag := range fragments {
		if m, ok := matcher.Match(frag); ok {
			if !found || m.Confidence > best.Confidence {
				best = m
				found = true
			}
		}
	}
	return best, found
}

// subjectFragments yields the free text worth matching against the
// subject vocabulary: genre labels and title phrases.
func subjectFragments(rec *record.Record) []string {
	fragments := append([]string{}, rec.Genres...)
	fragments = append(fragments, splitPhrases(rec.Title)...)
	return fragments
}

func placeFragments(rec *record.Record) []string {
	var fragments []string
	for _, text := range []string{rec.Title, rec.Description} {
		if m := textPlaceRe.FindStringSubmatch(text); m != nil {
			fragments = append(fragments, m[1])
		}
	}
	fragments = append(fragments, splitPhrases(rec.Title)...)
	return fragments
}

// splitPhrases breaks a title on its punctuation boundaries; catalogue
// titles pack place and topic phrases between colons and slashes.
func splitPhrases(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ':' || r == ';' || r == '/' || r == ',' || r == '.'
	})
	phrases := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			phrases = append(phrases, p)
		}
	}
	return phrases
}

// linkStrategy borrows field values from the most similar record in
// the corpus that has the field populated.
type linkStrategy struct {
	linker *linker.Linker
}

func newLinkStrategy(l *linker.Linker) *linkStrategy {
	return &linkStrategy{linker: l}
}

func (s *linkStrategy) Name() record.Strategy { return record.StrategyRecordLink }

func (s *linkStrategy) Attempt(_ context.Context, rec *record.Record, field string) (Proposal, bool) {
	for _, cand := range s.linker.Candidates(rec) {
		other := s.linker.Record(cand)
		if !other.HasField(field) {
			continue
		}
		return Proposal{Value: other.FieldValue(field), Confidence: cand.Score}, true
	}
	return Proposal{}, false
}

// Lookup is the optional external lookup capability. An empty result
// with a nil error means "no result". Implementations must honor the
// context deadline.
type Lookup interface {
	Lookup(ctx context.Context, query string) (string, error)
}

// lookupStrategy consults an injected external source. Timeouts and
// errors degrade to no-result; they never fail the pass.
type lookupStrategy struct {
	lookup  Lookup
	timeout time.Duration
}

// lookupConfidence is fixed: an external answer clears the default
// fill threshold but never outranks a strong local signal, because the
// chain only reaches this strategy last.
const lookupConfidence = 0.55

func newLookupStrategy(lookup Lookup, timeout time.Duration) *lookupStrategy {
	return &lookupStrategy{lookup: lookup, timeout: timeout}
}

func (s *lookupStrategy) Name() record.Strategy { return record.StrategyExternalLookup }

func (s *lookupStrategy) Attempt(ctx context.Context, rec *record.Record, field string) (Proposal, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	value, err := s.lookup.Lookup(ctx, lookupQuery(rec, field))
	if err != nil {
		slog.Warn("External lookup failed", "record", rec.ID, "field", field, "error", err)
		return Proposal{}, false
	}
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "none") {
		return Proposal{}, false
	}

	// Dates must come back parseable or they are worthless.
	if field == record.FieldDate {
		if _, ok := normalize.ParseDate(value); !ok {
			return Proposal{}, false
		}
	}

	return Proposal{Value: value, Confidence: lookupConfidence}, true
}

func lookupQuery(rec *record.Record, field string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Catalogue work %q", rec.Title)
	if len(rec.Creators) > 0 {
		fmt.Fprintf(&b, " by %s", rec.Creators[0])
	}
	fmt.Fprintf(&b, ": what is its %s? Answer with the value only, or NONE if unknown.", field)
	return b.String()
}
