package linker

import (
	"reflect"
	"testing"

	"github.com/wellcomecollection/enricher/internal/record"
)

func TestCandidatesBorrowableDate(t *testing.T) {
	// A record with no date but matching creators and subjects must
	// surface the dated record as its top candidate.
	target := record.Record{
		ID:       "w1",
		Creators: []string{"Smith, J."},
		Subjects: []string{"anatomy"},
	}
	corpus := []record.Record{
		target,
		{
			ID:       "w2",
			Date:     &record.WorkDate{Year: 1920},
			Creators: []string{"Smith, J."},
			Subjects: []string{"anatomy"},
		},
	}

	l := New(corpus, 0.4)
	candidates := l.Candidates(&corpus[0])

	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].CandidateID != "w2" {
		t.Errorf("Expected w2, got %s", candidates[0].CandidateID)
	}
	if candidates[0].Score < 0.4 {
		t.Errorf("Expected score >= 0.4, got %v", candidates[0].Score)
	}
	if other := l.Record(candidates[0]); other.Date == nil || other.Date.Year != 1920 {
		t.Errorf("Candidate record must carry the borrowable date")
	}
}

func TestSimilarityIdenticalRecordsMaximal(t *testing.T) {
	a := record.Record{
		ID:       "a",
		Creators: []string{"Harvey, William"},
		Date:     &record.WorkDate{Year: 1628},
		Subjects: []string{"anatomy", "circulation"},
	}
	b := a
	b.ID = "b"

	score, matched := Similarity(&a, &b)
	if score != 1.0 {
		t.Errorf("Identical creators, dates, and subjects must score 1.0, got %v", score)
	}
	if len(matched) != 3 {
		t.Errorf("Expected 3 matched fields, got %v", matched)
	}
}

func TestCandidatesOrderedByDescendingScore(t *testing.T) {
	target := record.Record{
		ID:       "t",
		Creators: []string{"Smith, J."},
		Date:     &record.WorkDate{Year: 1900},
		Subjects: []string{"anatomy", "surgery"},
	}
	corpus := []record.Record{
		target,
		{ID: "close", Creators: []string{"Smith, J."}, Date: &record.WorkDate{Year: 1901}, Subjects: []string{"anatomy", "surgery"}},
		{ID: "partial", Creators: []string{"Smith, J."}, Date: &record.WorkDate{Year: 1940}},
		{ID: "exact", Creators: []string{"Smith, J."}, Date: &record.WorkDate{Year: 1900}, Subjects: []string{"anatomy", "surgery"}},
	}

	l := New(corpus, 0.4)
	candidates := l.Candidates(&corpus[0])

	if len(candidates) < 2 {
		t.Fatalf("Expected at least 2 candidates, got %d", len(candidates))
	}
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Score > candidates[i-1].Score {
			t.Errorf("Candidates out of order: %v before %v",
				candidates[i-1].Score, candidates[i].Score)
		}
	}
	if candidates[0].CandidateID != "exact" {
		t.Errorf("Expected exact to rank first, got %s", candidates[0].CandidateID)
	}
}

func TestCandidatesThreshold(t *testing.T) {
	target := record.Record{
		ID:       "t",
		Creators: []string{"Smith, J."},
		Subjects: []string{"anatomy", "surgery", "pathology", "hygiene"},
	}
	corpus := []record.Record{
		target,
		// Shares one of four subjects and nothing else: jaccard 1/4
		// with creator overlap 0 keeps it under 0.4.
		{ID: "weak", Creators: []string{"Jones, A."}, Subjects: []string{"anatomy"}},
	}

	l := New(corpus, 0.4)
	if candidates := l.Candidates(&corpus[0]); len(candidates) != 0 {
		t.Errorf("Expected weak candidate to be excluded, got %v", candidates)
	}
}

func TestCandidatesExcludeSelf(t *testing.T) {
	rec := record.Record{ID: "only", Creators: []string{"Smith, J."}}
	corpus := []record.Record{rec}

	l := New(corpus, 0.4)
	if candidates := l.Candidates(&corpus[0]); len(candidates) != 0 {
		t.Errorf("A record must not link to itself, got %v", candidates)
	}
}

func TestCandidatesRecomputedPerCall(t *testing.T) {
	target := record.Record{ID: "t", Creators: []string{"Smith, J."}, Subjects: []string{"anatomy"}}
	corpus := []record.Record{
		target,
		{ID: "w2", Creators: []string{"Smith, J."}, Subjects: []string{"anatomy"}},
	}

	l := New(corpus, 0.4)
	first := l.Candidates(&corpus[0])
	second := l.Candidates(&corpus[0])

	if len(first) != len(second) {
		t.Fatalf("Repeated calls must agree: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !reflect.DeepEqual(first[i], second[i]) {
			t.Errorf("Candidate %d differs across calls", i)
		}
	}
}

func TestDateProximity(t *testing.T) {
	tests := []struct {
		name     string
		distance int
		want     float64
	}{
		{name: "exact", distance: 0, want: 1.0},
		{name: "half horizon", distance: 25, want: 0.5},
		{name: "at horizon", distance: 50, want: 0},
		{name: "beyond horizon", distance: 80, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dateProximity(tt.distance); got != tt.want {
				t.Errorf("dateProximity(%d) = %v, want %v", tt.distance, got, tt.want)
			}
		})
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{name: "identical", a: []string{"x", "y"}, b: []string{"X", "y"}, want: 1.0},
		{name: "half overlap", a: []string{"x", "y"}, b: []string{"y", "z"}, want: 1.0 / 3},
		{name: "disjoint", a: []string{"x"}, b: []string{"y"}, want: 0},
		{name: "one empty", a: []string{"x"}, b: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := jaccard(tt.a, tt.b); got != tt.want {
				t.Errorf("jaccard = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCandidatesDateOnlyPair(t *testing.T) {
	// No shared creators or subjects; the pair is similar purely on
	// date proximity and must still be found through the year index.
	corpus := []record.Record{
		{ID: "w1", Title: "First", Date: &record.WorkDate{Year: 1900}},
		{ID: "w2", Title: "Second", Date: &record.WorkDate{Year: 1905}},
		{ID: "far", Title: "Third", Date: &record.WorkDate{Year: 1990}},
	}

	l := New(corpus, 0.4)
	candidates := l.Candidates(&corpus[0])

	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].CandidateID != "w2" {
		t.Errorf("Expected w2, got %s", candidates[0].CandidateID)
	}
	if got := candidates[0].Score; got < 0.89 || got > 0.91 {
		t.Errorf("Expected score 0.9, got %v", got)
	}
	if len(candidates[0].MatchedFields) != 1 || candidates[0].MatchedFields[0] != record.FieldDate {
		t.Errorf("Expected only the date component to match, got %v", candidates[0].MatchedFields)
	}
}
