// Package record defines the catalogue record model shared by the
// snapshot store, normalizer, and enrichment pipeline.
package record

import (
	"time"
)

// Strategy identifies how an enriched field value was produced.
type Strategy string

const (
	StrategyTextInference   Strategy = "text-inference"
	StrategyVocabularyMatch Strategy = "vocabulary-match"
	StrategyRecordLink      Strategy = "record-link"
	StrategyExternalLookup  Strategy = "external-lookup"
)

// Field names used in provenance entries and flag maps.
const (
	FieldDate     = "date"
	FieldLocation = "location"
	FieldSubjects = "subjects"
	FieldCreators = "creators"

	// Resolution fields carry controlled-vocabulary terms derived
	// from the free-text fields above.
	FieldLocationResolved = "location_resolved"
	FieldSubjectsResolved = "subjects_resolved"
)

// WorkDate is a structured production date. Year is required; Month and
// Day are zero when unknown. FromYear/ToYear carry a range when the
// source gives one.
type WorkDate struct {
	Year     int    `json:"year" parquet:"year"`
	Month    int    `json:"month,omitempty" parquet:"month,optional"`
	Day      int    `json:"day,omitempty" parquet:"day,optional"`
	FromYear int    `json:"from_year,omitempty" parquet:"from_year,optional"`
	ToYear   int    `json:"to_year,omitempty" parquet:"to_year,optional"`
	Label    string `json:"label,omitempty" parquet:"label,optional"` // raw source label
}

// IsZero reports whether no structured date was resolved.
func (d WorkDate) IsZero() bool {
	return d.Year == 0 && d.FromYear == 0 && d.ToYear == 0
}

// ChangeEntry records one provenance event: a single field filled by
// the enrichment pass.
type ChangeEntry struct {
	RecordID   string    `json:"record_id" yaml:"record_id"`
	Field      string    `json:"field" yaml:"field"`
	OldValue   string    `json:"old_value,omitempty" yaml:"old_value,omitempty"`
	NewValue   string    `json:"new_value" yaml:"new_value"`
	Strategy   Strategy  `json:"strategy" yaml:"strategy"`
	Confidence float64   `json:"confidence" yaml:"confidence"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
}

// Record is one catalogue entry. The ID is assigned at download time
// and never changes; only the Enrichment Engine writes new field
// values after normalization.
type Record struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// Creators in source order, normalized to "Family, Given" where
	// the normalizer can split the name confidently.
	Creators []string `json:"creators,omitempty"`

	Date *WorkDate `json:"date,omitempty"`

	// Location holds the free-text place and, once matched, the
	// controlled-vocabulary term.
	Location         string `json:"location,omitempty"`
	LocationResolved string `json:"location_resolved,omitempty"`

	Subjects         []string `json:"subjects,omitempty"`
	SubjectsResolved []string `json:"subjects_resolved,omitempty"`

	Genres          []string `json:"genres,omitempty"`
	Languages       []string `json:"languages,omitempty"`
	Identifiers     []string `json:"identifiers,omitempty"`
	ReferenceNumber string   `json:"reference_number,omitempty"`
	PhysicalDesc    string   `json:"physical_description,omitempty"`

	// Unparsed marks fields the normalizer could not canonicalize;
	// the raw value is left in place.
	Unparsed []string `json:"unparsed,omitempty"`

	// Unresolved marks fields the enrichment pass could not fill.
	Unresolved []string `json:"unresolved,omitempty"`

	Provenance []ChangeEntry `json:"provenance,omitempty"`
}

// HasField reports whether the named enrichable field is populated.
func (r *Record) HasField(field string) bool {
	switch field {
	case FieldDate:
		return r.Date != nil && !r.Date.IsZero()
	case FieldLocation:
		return r.Location != ""
	case FieldSubjects:
		return len(r.Subjects) > 0
	case FieldCreators:
		return len(r.Creators) > 0
	}
	return false
}

// FieldValue returns the named field as a display string, empty when
// the field is unset.
func (r *Record) FieldValue(field string) string {
	switch field {
	case FieldDate:
		if r.Date == nil {
			return ""
		}
		return r.Date.String()
	case FieldLocation:
		return r.Location
	case FieldSubjects:
		return joinValues(r.Subjects)
	case FieldCreators:
		return joinValues(r.Creators)
	}
	return ""
}

// FlagUnparsed marks a field as left in its raw form. Idempotent.
func (r *Record) FlagUnparsed(field string) {
	for _, f := range r.Unparsed {
		if f == field {
			return
		}
	}
	r.Unparsed = append(r.Unparsed, field)
}

// FlagUnresolved marks a field the pass could not fill. Idempotent.
func (r *Record) FlagUnresolved(field string) {
	for _, f := range r.Unresolved {
		if f == field {
			return
		}
	}
	r.Unresolved = append(r.Unresolved, field)
}

// EnrichableFields lists the fields the enrichment engine attempts, in
// a fixed order so passes are deterministic.
func EnrichableFields() []string {
	return []string{FieldDate, FieldLocation, FieldSubjects, FieldCreators}
}

func joinValues(values []string) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += "; "
		}
		out += v
	}
	return out
}
