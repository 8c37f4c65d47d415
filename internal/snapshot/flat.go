package snapshot

import (
	"strconv"
	"strings"

	"github.com/wellcomecollection/enricher/internal/record"
)

// FlatRow is the fixed tabular projection of a Record used for CSV
// and Parquet encodings. Multi-valued fields are joined with "; ".
// The provenance log is not representable in a flat row; exports that
// need it use JSONL.
type FlatRow struct {
	ID               string `parquet:"id"`
	Title            string `parquet:"title,optional"`
	Description      string `parquet:"description,optional"`
	Creators         string `parquet:"creators,optional"`
	DateLabel        string `parquet:"date_label,optional"`
	DateYear         int32  `parquet:"date_year,optional"`
	DateMonth        int32  `parquet:"date_month,optional"`
	DateDay          int32  `parquet:"date_day,optional"`
	DateFromYear     int32  `parquet:"date_from_year,optional"`
	DateToYear       int32  `parquet:"date_to_year,optional"`
	Location         string `parquet:"location,optional"`
	LocationResolved string `parquet:"location_resolved,optional"`
	Subjects         string `parquet:"subjects,optional"`
	SubjectsResolved string `parquet:"subjects_resolved,optional"`
	Genres           string `parquet:"genres,optional"`
	Languages        string `parquet:"languages,optional"`
	Identifiers      string `parquet:"identifiers,optional"`
	ReferenceNumber  string `parquet:"reference_number,optional"`
	PhysicalDesc     string `parquet:"physical_description,optional"`
	Unparsed         string `parquet:"unparsed,optional"`
	Unresolved       string `parquet:"unresolved,optional"`
}

const listSeparator = "; "

// flatHeader is the CSV column order; it matches the FlatRow fields.
var flatHeader = []string{
	"id", "title", "description", "creators",
	"date_label", "date_year", "date_month", "date_day", "date_from_year", "date_to_year",
	"location", "location_resolved", "subjects", "subjects_resolved",
	"genres", "languages", "identifiers",
	"reference_number", "physical_description", "unparsed", "unresolved",
}

// Flatten projects a Record onto a FlatRow.
func Flatten(rec record.Record) FlatRow {
	row := FlatRow{
		ID:               rec.ID,
		Title:            rec.Title,
		Description:      rec.Description,
		Creators:         strings.Join(rec.Creators, listSeparator),
		Location:         rec.Location,
		LocationResolved: rec.LocationResolved,
		Subjects:         strings.Join(rec.Subjects, listSeparator),
		SubjectsResolved: strings.Join(rec.SubjectsResolved, listSeparator),
		Genres:           strings.Join(rec.Genres, listSeparator),
		Languages:        strings.Join(rec.Languages, listSeparator),
		Identifiers:      strings.Join(rec.Identifiers, listSeparator),
		ReferenceNumber:  rec.ReferenceNumber,
		PhysicalDesc:     rec.PhysicalDesc,
		Unparsed:         strings.Join(rec.Unparsed, listSeparator),
		Unresolved:       strings.Join(rec.Unresolved, listSeparator),
	}
	if rec.Date != nil {
		row.DateLabel = rec.Date.Label
		row.DateYear = int32(rec.Date.Year)
		row.DateMonth = int32(rec.Date.Month)
		row.DateDay = int32(rec.Date.Day)
		row.DateFromYear = int32(rec.Date.FromYear)
		row.DateToYear = int32(rec.Date.ToYear)
	}
	return row
}

// Expand converts a FlatRow back into a Record.
func (row FlatRow) Expand() record.Record {
	rec := record.Record{
		ID:               row.ID,
		Title:            row.Title,
		Description:      row.Description,
		Creators:         splitList(row.Creators),
		Location:         row.Location,
		LocationResolved: row.LocationResolved,
		Subjects:         splitList(row.Subjects),
		SubjectsResolved: splitList(row.SubjectsResolved),
		Genres:           splitList(row.Genres),
		Languages:        splitList(row.Languages),
		Identifiers:      splitList(row.Identifiers),
		ReferenceNumber:  row.ReferenceNumber,
		PhysicalDesc:     row.PhysicalDesc,
		Unparsed:         splitList(row.Unparsed),
		Unresolved:       splitList(row.Unresolved),
	}
	if row.DateLabel != "" || row.DateYear != 0 || row.DateFromYear != 0 || row.DateToYear != 0 {
		rec.Date = &record.WorkDate{
			Label:    row.DateLabel,
			Year:     int(row.DateYear),
			Month:    int(row.DateMonth),
			Day:      int(row.DateDay),
			FromYear: int(row.DateFromYear),
			ToYear:   int(row.DateToYear),
		}
	}
	return rec
}

// csvFields renders the row in flatHeader order.
func (row FlatRow) csvFields() []string {
	return []string{
		row.ID, row.Title, row.Description, row.Creators,
		row.DateLabel, itoa(row.DateYear), itoa(row.DateMonth), itoa(row.DateDay),
		itoa(row.DateFromYear), itoa(row.DateToYear),
		row.Location, row.LocationResolved, row.Subjects, row.SubjectsResolved,
		row.Genres, row.Languages, row.Identifiers,
		row.ReferenceNumber, row.PhysicalDesc, row.Unparsed, row.Unresolved,
	}
}

// rowFromCSV parses one CSV record in flatHeader order.
func rowFromCSV(fields []string) FlatRow {
	get := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	return FlatRow{
		ID:               get(0),
		Title:            get(1),
		Description:      get(2),
		Creators:         get(3),
		DateLabel:        get(4),
		DateYear:         atoi(get(5)),
		DateMonth:        atoi(get(6)),
		DateDay:          atoi(get(7)),
		DateFromYear:     atoi(get(8)),
		DateToYear:       atoi(get(9)),
		Location:         get(10),
		LocationResolved: get(11),
		Subjects:         get(12),
		SubjectsResolved: get(13),
		Genres:           get(14),
		Languages:        get(15),
		Identifiers:      get(16),
		ReferenceNumber:  get(17),
		PhysicalDesc:     get(18),
		Unparsed:         get(19),
		Unresolved:       get(20),
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, listSeparator)
}

func itoa(v int32) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(int(v))
}

func atoi(s string) int32 {
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return int32(v)
}
