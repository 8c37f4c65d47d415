package snapshot

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/wellcomecollection/enricher/internal/record"
)

const sampleWork = `{
	"id": "a222wwjt",
	"title": "An account of the epidemic fever : London, 1887",
	"description": "Observations on the outbreak.",
	"physicalDescription": "viii, 220 pages",
	"contributors": [
		{"agent": {"id": "x1", "label": "Murchison, Charles"}, "roles": [{"label": "author"}]}
	],
	"production": [
		{
			"dates": [{"label": "1887", "range": {"from": "1887-01-01T00:00:00Z", "to": "1887-12-31T23:59:59Z"}}],
			"places": [{"label": "London"}]
		}
	],
	"subjects": [{"label": "Fever"}, {"label": "Epidemics"}],
	"genres": [{"label": "Monographs"}],
	"languages": [{"label": "English"}],
	"identifiers": [
		{"identifierType": {"id": "sierra-system-number"}, "value": "b21293302"}
	]
}`

func TestParseWork(t *testing.T) {
	rec, err := ParseWork([]byte(sampleWork))
	if err != nil {
		t.Fatalf("ParseWork failed: %v", err)
	}

	if rec.ID != "a222wwjt" {
		t.Errorf("Expected id a222wwjt, got %s", rec.ID)
	}
	if rec.Title != "An account of the epidemic fever : London, 1887" {
		t.Errorf("Unexpected title: %s", rec.Title)
	}
	if len(rec.Creators) != 1 || rec.Creators[0] != "Murchison, Charles" {
		t.Errorf("Expected creator Murchison, Charles, got %v", rec.Creators)
	}
	if rec.Date == nil {
		t.Fatal("Expected a production date")
	}
	if rec.Date.Year != 1887 || rec.Date.Label != "1887" {
		t.Errorf("Expected year 1887 with label 1887, got %+v", rec.Date)
	}
	if rec.Location != "London" {
		t.Errorf("Expected location London, got %q", rec.Location)
	}
	if len(rec.Subjects) != 2 || rec.Subjects[0] != "Fever" {
		t.Errorf("Unexpected subjects: %v", rec.Subjects)
	}
	if len(rec.Identifiers) != 1 || rec.Identifiers[0] != "sierra-system-number:b21293302" {
		t.Errorf("Unexpected identifiers: %v", rec.Identifiers)
	}
}

func TestParseWorkErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"invalid json", `{"id": "x", "title":`},
		{"missing id", `{"title": "Untitled"}`},
		{"not an object", `[1, 2, 3]`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := ParseWork([]byte(test.line)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestLoadRawGzipSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "works.json.gz")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test snapshot: %v", err)
	}
	gz := gzip.NewWriter(file)
	lines := []string{
		`{"id": "good1", "title": "First work"}`,
		`{this is not json}`,
		`{"title": "no id here"}`,
		`{"id": "good2", "title": "Second work"}`,
	}
	for _, line := range lines {
		if _, err := gz.Write([]byte(line + "\n")); err != nil {
			t.Fatalf("Failed to write test snapshot: %v", err)
		}
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("Failed to close gzip writer: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("Failed to close test snapshot: %v", err)
	}

	records, err := NewStore().Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].ID != "good1" || records[1].ID != "good2" {
		t.Errorf("Unexpected record ids: %s, %s", records[0].ID, records[1].ID)
	}
}

func TestJSONLRoundtrip(t *testing.T) {
	records := []record.Record{
		{
			ID:       "w1",
			Title:    "A treatise on fevers",
			Date:     &record.WorkDate{Year: 1887, Label: "1887"},
			Location: "London",
			Subjects: []string{"Fever"},
			Creators: []string{"Murchison, Charles"},
			Provenance: []record.ChangeEntry{
				{RecordID: "w1", Field: record.FieldDate, NewValue: "1887", Strategy: record.StrategyTextInference, Confidence: 0.7},
			},
		},
		{ID: "w2", Title: "Untitled fragment", Unresolved: []string{record.FieldDate}},
	}

	store := NewStore()
	path := filepath.Join(t.TempDir(), "records.jsonl")
	if err := store.Save(records, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(loaded))
	}
	if loaded[0].Date == nil || loaded[0].Date.Year != 1887 {
		t.Errorf("Date did not survive the roundtrip: %+v", loaded[0].Date)
	}
	if len(loaded[0].Provenance) != 1 || loaded[0].Provenance[0].Strategy != record.StrategyTextInference {
		t.Errorf("Provenance did not survive the roundtrip: %+v", loaded[0].Provenance)
	}
	if len(loaded[1].Unresolved) != 1 || loaded[1].Unresolved[0] != record.FieldDate {
		t.Errorf("Unresolved flags did not survive the roundtrip: %+v", loaded[1].Unresolved)
	}
}

func TestCSVRoundtrip(t *testing.T) {
	records := []record.Record{
		{
			ID:       "w1",
			Title:    "A treatise; with notes",
			Date:     &record.WorkDate{Year: 1887, FromYear: 1880, ToYear: 1890, Label: "1880-1890"},
			Location: "London",
			Subjects: []string{"Fever", "Epidemics"},
			Creators: []string{"Murchison, Charles"},
		},
		{
			ID:   "w2",
			Date: &record.WorkDate{Year: 1920, Month: 5, Day: 17, Label: "17 May 1920"},
		},
	}

	store := NewStore()
	path := filepath.Join(t.TempDir(), "records.csv")
	if err := store.Save(records, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(loaded))
	}
	got := loaded[0]
	if got.ID != "w1" || got.Location != "London" {
		t.Errorf("Unexpected record: %+v", got)
	}
	if got.Date == nil || got.Date.FromYear != 1880 || got.Date.ToYear != 1890 {
		t.Errorf("Date range did not survive the roundtrip: %+v", got.Date)
	}
	if len(got.Subjects) != 2 || got.Subjects[1] != "Epidemics" {
		t.Errorf("Subjects did not survive the roundtrip: %v", got.Subjects)
	}
	day := loaded[1].Date
	if day == nil || day.Year != 1920 || day.Month != 5 || day.Day != 17 {
		t.Errorf("Day-level date did not survive the roundtrip: %+v", day)
	}
}

func TestParquetRoundtrip(t *testing.T) {
	records := []record.Record{
		{ID: "w1", Title: "First", Date: &record.WorkDate{Year: 1900, Month: 3, Day: 2, Label: "2 March 1900"}},
		{ID: "w2", Title: "Second", Subjects: []string{"Anatomy"}},
		{ID: "w3", Title: "Third", Unparsed: []string{record.FieldDate}},
	}

	store := NewStore()
	path := filepath.Join(t.TempDir(), "records.parquet")
	if err := store.Save(records, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(loaded))
	}
	if loaded[0].Date == nil || loaded[0].Date.Year != 1900 || loaded[0].Date.Month != 3 || loaded[0].Date.Day != 2 {
		t.Errorf("Date did not survive the roundtrip: %+v", loaded[0].Date)
	}
	if len(loaded[1].Subjects) != 1 || loaded[1].Subjects[0] != "Anatomy" {
		t.Errorf("Subjects did not survive the roundtrip: %v", loaded[1].Subjects)
	}
	if len(loaded[2].Unparsed) != 1 {
		t.Errorf("Unparsed flags did not survive the roundtrip: %v", loaded[2].Unparsed)
	}
}

func TestLoadSampleLimit(t *testing.T) {
	var records []record.Record
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		records = append(records, record.Record{ID: id, Title: "Work " + id})
	}

	store := NewStore()
	path := filepath.Join(t.TempDir(), "records.jsonl")
	if err := store.Save(records, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.LoadSample(path, 3)
	if err != nil {
		t.Fatalf("LoadSample failed: %v", err)
	}
	if len(loaded) != 3 {
		t.Errorf("Expected 3 records, got %d", len(loaded))
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := NewStore().Load("records.xml"); err == nil {
		t.Fatal("Expected an error for an unsupported format")
	}
}

func TestSaveUnsupportedFormat(t *testing.T) {
	err := NewStore().Save([]record.Record{{ID: "w1"}}, filepath.Join(t.TempDir(), "out.gz"))
	if err == nil {
		t.Fatal("Expected an error for an unsupported output format")
	}
}

func TestIsoYear(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1887-01-01T00:00:00Z", 1887},
		{"1920-05-17", 1920},
		{"1800", 1800},
		{"", 0},
		{"not a date", 0},
	}

	for _, test := range tests {
		if got := isoYear(test.in); got != test.want {
			t.Errorf("isoYear(%q) = %d, want %d", test.in, got, test.want)
		}
	}
}
