package vocab

import (
	"strings"
	"unicode"
)

// Match is a successful vocabulary lookup.
type Match struct {
	Term       Term
	Alias      string // the alias that produced the match
	Confidence float64
	Method     string // "exact", "normalized", "token_subset"
}

// Matcher maps free-text fragments onto the terms of one vocabulary.
type Matcher struct {
	vocab     *Vocabulary
	threshold float64

	exact      map[string]aliasRef // verbatim alias -> term
	normalized map[string]aliasRef // case/punctuation-folded alias -> term
}

type aliasRef struct {
	termIdx int
	alias   string
}

// NewMatcher builds the alias indexes for a vocabulary. Matches below
// threshold are reported as no-match.
func NewMatcher(v *Vocabulary, threshold float64) *Matcher {
	m := &Matcher{
		vocab:      v,
		threshold:  threshold,
		exact:      make(map[string]aliasRef),
		normalized: make(map[string]aliasRef),
	}

	for i, term := range v.Terms {
		for _, alias := range term.AllAliases() {
			ref := aliasRef{termIdx: i, alias: alias}
			if prev, ok := m.exact[alias]; !ok || shorterAlias(alias, prev.alias) {
				m.exact[alias] = ref
			}
			norm := normalizeFragment(alias)
			if prev, ok := m.normalized[norm]; !ok || shorterAlias(alias, prev.alias) {
				m.normalized[norm] = ref
			}
		}
	}

	return m
}

// Match returns the best term for a fragment, or ok=false when no
// candidate clears the threshold. Policy, in order: exact alias match
// (1.0), case/punctuation-insensitive match (0.9), token-subset match
// (0.6-0.8 by overlap ratio). Ties prefer the shortest alias.
func (m *Matcher) Match(fragment string) (Match, bool) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return Match{}, false
	}

	if ref, ok := m.exact[fragment]; ok {
		return m.result(ref, 1.0, "exact")
	}

	if ref, ok := m.normalized[normalizeFragment(fragment)]; ok {
		return m.result(ref, 0.9, "normalized")
	}

	return m.tokenSubsetMatch(fragment)
}

// tokenSubsetMatch accepts a term when every significant token of the
// fragment appears in one of the term's aliases. Confidence scales
// from 0.6 to 0.8 with the share of alias tokens covered, so tighter
// aliases score higher.
func (m *Matcher) tokenSubsetMatch(fragment string) (Match, bool) {
	fragTokens := significantTokens(fragment)
	if len(fragTokens) == 0 {
		return Match{}, false
	}

	best := Match{}
	found := false

	for _, term := range m.vocab.Terms {
		for _, alias := range term.AllAliases() {
			aliasTokens := significantTokens(alias)
			if len(aliasTokens) == 0 {
				continue
			}

			if !containsAll(aliasTokens, fragTokens) {
				continue
			}

			overlap := float64(len(fragTokens)) / float64(len(aliasTokens))
			confidence := 0.6 + 0.2*overlap
			if confidence > 0.8 {
				confidence = 0.8
			}

			candidate := Match{
				Term:       term,
				Alias:      alias,
				Confidence: confidence,
				Method:     "token_subset",
			}

			if !found || betterMatch(candidate, best) {
				best = candidate
				found = true
			}
		}
	}

	if !found || best.Confidence < m.threshold {
		return Match{}, false
	}
	return best, true
}

func (m *Matcher) result(ref aliasRef, confidence float64, method string) (Match, bool) {
	if confidence < m.threshold {
		return Match{}, false
	}
	return Match{
		Term:       m.vocab.Terms[ref.termIdx],
		Alias:      ref.alias,
		Confidence: confidence,
		Method:     method,
	}, true
}

func betterMatch(a, b Match) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return shorterAlias(a.Alias, b.Alias)
}

// shorterAlias prefers the most specific (shortest) alias on ties.
func shorterAlias(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// stopWords are not significant for token matching.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "de": true, "der": true,
	"la": true, "le": true, "of": true, "on": true, "the": true,
}

// normalizeFragment lowercases and strips punctuation, collapsing
// whitespace runs to single spaces.
func normalizeFragment(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace:
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

func significantTokens(s string) []string {
	fields := strings.Fields(normalizeFragment(s))
	tokens := fields[:0]
	for _, f := range fields {
		if !stopWords[f] {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func containsAll(haystack, needles []string) bool {
	set := make(map[string]bool, len(haystack))
	for _, h := range haystack {
		set[h] = true
	}
	for _, n := range needles {
		if !set[n] {
			return false
		}
	}
	return true
}
