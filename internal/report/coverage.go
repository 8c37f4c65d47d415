package report

import (
	"fmt"
	"io"

	"github.com/wellcomecollection/enricher/internal/record"
)

// Coverage counts how many records have each enrichable field
// populated.
type Coverage struct {
	Records int
	Filled  map[string]int
}

// MeasureCoverage scans a record set.
func MeasureCoverage(records []record.Record) Coverage {
	cov := Coverage{
		Records: len(records),
		Filled:  make(map[string]int),
	}
	for i := range records {
		for _, field := range record.EnrichableFields() {
			if records[i].HasField(field) {
				cov.Filled[field]++
			}
		}
	}
	return cov
}

// PrintCoverageDelta writes the per-field populated counts before and
// after a pass.
func PrintCoverageDelta(w io.Writer, before, after Coverage) {
	fmt.Fprintf(w, "Field coverage (%d records):\n", after.Records)

	rows := [][]string{{"Field", "Before", "After", "Gained"}}
	for _, field := range record.EnrichableFields() {
		b := before.Filled[field]
		a := after.Filled[field]
		rows = append(rows, []string{
			field,
			fmt.Sprintf("%d", b),
			fmt.Sprintf("%d", a),
			fmt.Sprintf("%d", a-b),
		})
	}
	printTable(w, rows)
}
