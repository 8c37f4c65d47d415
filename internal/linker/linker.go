// Package linker finds candidate related records inside one frozen
// corpus snapshot, scoring pairs on creator overlap, date proximity,
// and subject overlap.
package linker

import (
	"sort"
	"strings"

	"github.com/wellcomecollection/enricher/internal/record"
)

// Candidate is a scored link between the target record and one corpus
// record. Candidates live only for the duration of one enrichment
// pass.
type Candidate struct {
	TargetID      string
	CandidateID   string
	Score         float64
	MatchedFields []string

	// Index into the corpus slice, so consumers can borrow field
	// values without a second lookup.
	Index int
}

// Linker scores link candidates against an immutable corpus snapshot.
// The corpus slice must not be mutated while the linker is in use.
type Linker struct {
	corpus    []record.Record
	threshold float64

	byCreator map[string][]int
	bySubject map[string][]int
	byYear    map[int][]int
}

// New indexes the corpus. The indexes map normalized creator names,
// subject tags, and resolved years to corpus positions so candidate
// generation only visits records that share at least one attribute
// with the target.
func New(corpus []record.Record, threshold float64) *Linker {
	l := &Linker{
		corpus:    corpus,
		threshold: threshold,
		byCreator: make(map[string][]int),
		bySubject: make(map[string][]int),
		byYear:    make(map[int][]int),
	}

	for i, rec := range corpus {
		for _, c := range rec.Creators {
			key := foldKey(c)
			l.byCreator[key] = append(l.byCreator[key], i)
		}
		for _, s := range rec.Subjects {
			key := foldKey(s)
			l.bySubject[key] = append(l.bySubject[key], i)
		}
		if rec.Date != nil {
			if year := rec.Date.EffectiveYear(); year != 0 {
				l.byYear[year] = append(l.byYear[year], i)
			}
		}
	}

	return l
}

// Candidates returns link candidates for a record, ordered by
// descending score, ties broken by candidate id. Recomputed on every
// call; nothing is cached between calls.
func (l *Linker) Candidates(rec *record.Record) []Candidate {
	seen := make(map[int]bool)
	var candidates []Candidate

	consider := func(idx int) {
		if seen[idx] {
			return
		}
		seen[idx] = true

		other := &l.corpus[idx]
		if other.ID == rec.ID {
			return
		}

		score, matched := Similarity(rec, other)
		if score < l.threshold {
			return
		}
		candidates = append(candidates, Candidate{
			TargetID:      rec.ID,
			CandidateID:   other.ID,
			Score:         score,
			MatchedFields: matched,
			Index:         idx,
		})
	}

	for _, c := range rec.Creators {
		for _, idx := range l.byCreator[foldKey(c)] {
			consider(idx)
		}
	}
	for _, s := range rec.Subjects {
		for _, idx := range l.bySubject[foldKey(s)] {
			consider(idx)
		}
	}
	if rec.Date != nil {
		if year := rec.Date.EffectiveYear(); year != 0 {
			// Date proximity is zero at the horizon, so records
			// outside it cannot contribute a date component.
			for y := year - proximityHorizon + 1; y < year+proximityHorizon; y++ {
				for _, idx := range l.byYear[y] {
					consider(idx)
				}
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].CandidateID < candidates[j].CandidateID
	})

	return candidates
}

// Record returns the corpus record behind a candidate.
func (l *Linker) Record(c Candidate) *record.Record {
	return &l.corpus[c.Index]
}

// Similarity scores two records on creator overlap, date proximity,
// and subject Jaccard overlap. Components where neither record has
// data are excluded from the mean, so two records identical on every
// populated attribute score 1.0.
func Similarity(a, b *record.Record) (float64, []string) {
	total := 0.0
	n := 0
	var matched []string

	if len(a.Creators) > 0 || len(b.Creators) > 0 {
		score := jaccard(a.Creators, b.Creators)
		total += score
		n++
		if score > 0 {
			matched = append(matched, record.FieldCreators)
		}
	}

	if dist := record.YearDistance(a.Date, b.Date); dist >= 0 {
		score := dateProximity(dist)
		total += score
		n++
		if score > 0 {
			matched = append(matched, record.FieldDate)
		}
	}

	if len(a.Subjects) > 0 || len(b.Subjects) > 0 {
		score := jaccard(a.Subjects, b.Subjects)
		total += score
		n++
		if score > 0 {
			matched = append(matched, record.FieldSubjects)
		}
	}

	if n == 0 {
		return 0, nil
	}
	return total / float64(n), matched
}

// proximityHorizon is the year gap at which date proximity reaches
// zero.
const proximityHorizon = 50

// dateProximity maps a year gap onto [0,1]: identical years score 1.0,
// decaying linearly to 0 at fifty years apart.
func dateProximity(distance int) float64 {
	if distance >= proximityHorizon {
		return 0
	}
	return 1.0 - float64(distance)/proximityHorizon
}

// jaccard computes set overlap on case-folded values.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(a))
	for _, v := range a {
		setA[foldKey(v)] = true
	}
	setB := make(map[string]bool, len(b))
	for _, v := range b {
		setB[foldKey(v)] = true
	}

	intersection := 0
	for v := range setA {
		if setB[v] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
