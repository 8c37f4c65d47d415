package snapshot

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wellcomecollection/enricher/internal/record"
)

// rawWork mirrors the shape of one line of the Wellcome Collection
// works snapshot (catalogue API v2).
type rawWork struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	PhysicalDescription string   `json:"physicalDescription"`
	ReferenceNumber     string   `json:"referenceNumber"`
	AlternativeTitles   []string `json:"alternativeTitles"`

	Production []struct {
		Dates []struct {
			Label string `json:"label"`
			Range *struct {
				From string `json:"from"`
				To   string `json:"to"`
			} `json:"range"`
		} `json:"dates"`
		Places []labelled `json:"places"`
		Agents []labelled `json:"agents"`
	} `json:"production"`

	Contributors []struct {
		Agent labelled   `json:"agent"`
		Roles []labelled `json:"roles"`
	} `json:"contributors"`

	Subjects  []labelled `json:"subjects"`
	Genres    []labelled `json:"genres"`
	Languages []labelled `json:"languages"`

	Identifiers []struct {
		IdentifierType struct {
			ID string `json:"id"`
		} `json:"identifierType"`
		Value string `json:"value"`
	} `json:"identifiers"`
}

type labelled struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ParseWork flattens one raw snapshot line into a Record. Returns an
// error for unparseable JSON or a work with no id; callers skip such
// lines and keep going.
func ParseWork(line []byte) (record.Record, error) {
	var work rawWork
	if err := json.Unmarshal(line, &work); err != nil {
		return record.Record{}, fmt.Errorf("malformed work: %w", err)
	}
	if work.ID == "" {
		return record.Record{}, fmt.Errorf("work has no id")
	}

	rec := record.Record{
		ID:              work.ID,
		Title:           work.Title,
		Description:     work.Description,
		PhysicalDesc:    work.PhysicalDescription,
		ReferenceNumber: work.ReferenceNumber,
	}

	for _, contrib := range work.Contributors {
		if contrib.Agent.Label != "" {
			rec.Creators = append(rec.Creators, contrib.Agent.Label)
		}
	}

	// First production event carries the date and places, matching how
	// the catalogue presents works.
	if len(work.Production) > 0 {
		prod := work.Production[0]
		if len(prod.Dates) > 0 {
			date := prod.Dates[0]
			d := record.WorkDate{Label: date.Label}
			if date.Range != nil {
				d.FromYear = isoYear(date.Range.From)
				d.ToYear = isoYear(date.Range.To)
				if d.FromYear != 0 && d.FromYear == d.ToYear {
					d.Year = d.FromYear
				}
			}
			rec.Date = &d
		}
		if len(prod.Places) > 0 {
			rec.Location = prod.Places[0].Label
		}
	}

	for _, s := range work.Subjects {
		if s.Label != "" {
			rec.Subjects = append(rec.Subjects, s.Label)
		}
	}
	for _, g := range work.Genres {
		if g.Label != "" {
			rec.Genres = append(rec.Genres, g.Label)
		}
	}
	for _, l := range work.Languages {
		if l.Label != "" {
			rec.Languages = append(rec.Languages, l.Label)
		}
	}
	for _, ident := range work.Identifiers {
		if ident.IdentifierType.ID != "" && ident.Value != "" {
			rec.Identifiers = append(rec.Identifiers, ident.IdentifierType.ID+":"+ident.Value)
		}
	}

	return rec, nil
}

// isoYear pulls the year out of an ISO-8601 range boundary like
// "1920-01-01T00:00:00Z".
func isoYear(s string) int {
	if s == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t.Year()
	}
	// Some boundaries are bare dates or years.
	if idx := strings.IndexAny(s, "-T"); idx > 0 {
		s = s[:idx]
	}
	var year int
	if _, err := fmt.Sscanf(s, "%d", &year); err != nil {
		return 0
	}
	return year
}
