// Package report aggregates the outcome of an enrichment pass and
// renders it for operators.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/wellcomecollection/enricher/internal/provenance"
	"github.com/wellcomecollection/enricher/internal/record"
)

// FieldStats aggregates fills for one field.
type FieldStats struct {
	Field         string
	Filled        int
	ByStrategy    map[record.Strategy]int
	AvgConfidence float64
}

// Summary is the aggregated view of one pass's audit trail.
type Summary struct {
	RunID        string
	TotalEntries int
	Fields       []FieldStats
	ByStrategy   map[record.Strategy]int

	AvgConfidence float64
	MinConfidence float64
	MaxConfidence float64
}

// Summarize aggregates an audit trail.
func Summarize(trail provenance.Trail) *Summary {
	summary := &Summary{
		RunID:        trail.RunID,
		TotalEntries: len(trail.Entries),
		ByStrategy:   make(map[record.Strategy]int),
	}

	byField := make(map[string]*FieldStats)
	fieldConfidence := make(map[string]float64)

	total := 0.0
	for i, entry := range trail.Entries {
		summary.ByStrategy[entry.Strategy]++
		total += entry.Confidence

		if i == 0 || entry.Confidence < summary.MinConfidence {
			summary.MinConfidence = entry.Confidence
		}
		if entry.Confidence > summary.MaxConfidence {
			summary.MaxConfidence = entry.Confidence
		}

		stats, ok := byField[entry.Field]
		if !ok {
			stats = &FieldStats{Field: entry.Field, ByStrategy: make(map[record.Strategy]int)}
			byField[entry.Field] = stats
		}
		stats.Filled++
		stats.ByStrategy[entry.Strategy]++
		fieldConfidence[entry.Field] += entry.Confidence
	}

	if len(trail.Entries) > 0 {
		summary.AvgConfidence = total / float64(len(trail.Entries))
	}

	var fieldNames []string
	for name := range byField {
		fieldNames = append(fieldNames, name)
	}
	sort.Strings(fieldNames)

	for _, name := range fieldNames {
		stats := byField[name]
		stats.AvgConfidence = fieldConfidence[name] / float64(stats.Filled)
		summary.Fields = append(summary.Fields, *stats)
	}

	return summary
}

// Print writes the pass summary as an aligned table.
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "Enrichment Pass Summary")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Run ID:          %s\n", s.RunID)
	fmt.Fprintf(w, "Fields Filled:   %d\n", s.TotalEntries)
	if s.TotalEntries > 0 {
		fmt.Fprintf(w, "Avg Confidence:  %.2f\n", s.AvgConfidence)
		fmt.Fprintf(w, "Min Confidence:  %.2f\n", s.MinConfidence)
		fmt.Fprintf(w, "Max Confidence:  %.2f\n", s.MaxConfidence)
	}
	fmt.Fprintln(w)

	if len(s.Fields) > 0 {
		header := []string{"Field", "Filled", "Avg Conf", "Top Strategy"}
		rows := [][]string{header}
		for _, f := range s.Fields {
			rows = append(rows, []string{
				f.Field,
				fmt.Sprintf("%d", f.Filled),
				fmt.Sprintf("%.2f", f.AvgConfidence),
				string(topStrategy(f.ByStrategy)),
			})
		}
		printTable(w, rows)
		fmt.Fprintln(w)
	}

	if len(s.ByStrategy) > 0 {
		fmt.Fprintln(w, "Fills by strategy:")
		var strategies []string
		for strat := range s.ByStrategy {
			strategies = append(strategies, string(strat))
		}
		sort.Strings(strategies)
		for _, strat := range strategies {
			fmt.Fprintf(w, "  %s: %d\n", strat, s.ByStrategy[record.Strategy(strat)])
		}
	}
	fmt.Fprintln(w, "========================================")
}

func topStrategy(counts map[record.Strategy]int) record.Strategy {
	best := record.Strategy("")
	bestCount := -1
	var names []string
	for strat := range counts {
		names = append(names, string(strat))
	}
	sort.Strings(names)
	for _, name := range names {
		strat := record.Strategy(name)
		if counts[strat] > bestCount {
			best = strat
			bestCount = counts[strat]
		}
	}
	return best
}

// printTable pads columns to their display width.
func printTable(w io.Writer, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if width := runewidth.StringWidth(cell); width > widths[i] {
				widths[i] = width
			}
		}
	}

	for rowIdx, row := range rows {
		var b strings.Builder
		for i, cell := range row {
			b.WriteString(cell)
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)+2))
			}
		}
		fmt.Fprintln(w, b.String())
		if rowIdx == 0 {
			var sep strings.Builder
			for i, width := range widths {
				sep.WriteString(strings.Repeat("-", width))
				if i < len(widths)-1 {
					sep.WriteString("  ")
				}
			}
			fmt.Fprintln(w, sep.String())
		}
	}
}
