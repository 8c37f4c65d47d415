// Package normalize canonicalizes raw record fields: dates, creator
// name order, location strings, and subject tags. It only reformats
// values already present; it never invents data and never writes
// provenance.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wellcomecollection/enricher/internal/record"
)

// Normalizer rewrites record fields in place-consistent forms.
type Normalizer struct{}

// New creates a normalizer.
func New() *Normalizer {
	return &Normalizer{}
}

// Normalize returns a copy of the record with canonicalized fields.
// Unparseable values are left untouched and flagged, never dropped.
func (n *Normalizer) Normalize(rec record.Record) record.Record {
	out := rec

	out.Creators = normalizeCreators(rec.Creators)
	out.Location = normalizeLocation(rec.Location)
	out.Subjects = dedupeSubjects(rec.Subjects)
	out.Genres = dedupeSubjects(rec.Genres)

	if rec.Date != nil && rec.Date.IsZero() && rec.Date.Label != "" {
		if parsed, ok := ParseDate(rec.Date.Label); ok {
			parsed.Label = rec.Date.Label
			out.Date = &parsed
		} else {
			out.FlagUnparsed(record.FieldDate)
		}
	}

	return out
}

// normalizeCreators reorders names to "Family, Given" where the split
// is unambiguous. Names already in inverted order, single-token names,
// and corporate names (containing "&" or common org words) pass
// through trimmed.
func normalizeCreators(creators []string) []string {
	if len(creators) == 0 {
		return creators
	}
	out := make([]string, 0, len(creators))
	for _, c := range creators {
		c = strings.Join(strings.Fields(c), " ")
		if c == "" {
			continue
		}
		out = append(out, invertName(c))
	}
	return out
}

var orgMarkers = []string{"&", " and ", "society", "museum", "institute", "university", "library", "company", "ltd"}

func invertName(name string) string {
	if strings.Contains(name, ",") {
		return name
	}
	lower := strings.ToLower(name)
	for _, marker := range orgMarkers {
		if strings.Contains(lower, marker) {
			return name
		}
	}

	parts := strings.Fields(name)
	if len(parts) < 2 || len(parts) > 4 {
		return name
	}
	family := parts[len(parts)-1]
	given := strings.Join(parts[:len(parts)-1], " ")
	return family + ", " + given
}

// normalizeLocation trims and title-cases a free-text place string.
func normalizeLocation(loc string) string {
	loc = strings.Join(strings.Fields(loc), " ")
	loc = strings.Trim(loc, " :;,.[]")
	if loc == "" {
		return ""
	}

	words := strings.Split(loc, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		lower := strings.ToLower(w)
		// Keep connective particles lowercase inside the phrase.
		if i > 0 && (lower == "of" || lower == "the" || lower == "upon" || lower == "on" || lower == "de") {
			words[i] = lower
			continue
		}
		words[i] = upperFirst(lower)
	}
	return strings.Join(words, " ")
}

// upperFirst uppercases the first rune; the word may start with a
// multi-byte letter.
func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// dedupeSubjects removes case-insensitive duplicates, keeping the
// first occurrence's casing and order.
func dedupeSubjects(subjects []string) []string {
	if len(subjects) == 0 {
		return subjects
	}
	seen := make(map[string]bool, len(subjects))
	out := make([]string, 0, len(subjects))
	for _, s := range subjects {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
