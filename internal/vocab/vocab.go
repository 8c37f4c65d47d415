// Package vocab holds the controlled vocabularies and the matcher that
// maps free-text fragments onto canonical terms.
package vocab

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind names a vocabulary domain.
type Kind string

const (
	KindSubjects Kind = "subjects"
	KindPlaces   Kind = "places"
)

// Term is a canonical vocabulary entry with its known aliases. Terms
// are immutable after load.
type Term struct {
	Canonical string   `yaml:"term"`
	Aliases   []string `yaml:"aliases"`
}

// AllAliases returns the canonical form plus every alias.
func (t Term) AllAliases() []string {
	out := make([]string, 0, len(t.Aliases)+1)
	out = append(out, t.Canonical)
	out = append(out, t.Aliases...)
	return out
}

// Vocabulary is one loaded controlled vocabulary.
type Vocabulary struct {
	Kind  Kind
	Terms []Term
}

type vocabFile struct {
	Terms []Term `yaml:"terms"`
}

// Load reads one vocabulary YAML file. A load failure is fatal to the
// pass; enrichment cannot start without its vocabularies.
func Load(path string, kind Kind) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary %s: %w", kind, err)
	}

	var file vocabFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary %s: %w", kind, err)
	}

	if len(file.Terms) == 0 {
		return nil, fmt.Errorf("vocabulary %s is empty: %s", kind, path)
	}

	for i, term := range file.Terms {
		if strings.TrimSpace(term.Canonical) == "" {
			return nil, fmt.Errorf("vocabulary %s: term %d has no canonical form", kind, i)
		}
	}

	return &Vocabulary{Kind: kind, Terms: file.Terms}, nil
}

// LoadDir loads the standard vocabulary files from a directory:
// subjects.yaml and places.yaml.
func LoadDir(dir string) (map[Kind]*Vocabulary, error) {
	files := map[Kind]string{
		KindSubjects: "subjects.yaml",
		KindPlaces:   "places.yaml",
	}

	vocabs := make(map[Kind]*Vocabulary, len(files))
	for kind, name := range files {
		v, err := Load(filepath.Join(dir, name), kind)
		if err != nil {
			return nil, err
		}
		vocabs[kind] = v
	}
	return vocabs, nil
}
