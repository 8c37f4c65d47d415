// Package snapshot is the durable store for catalogue snapshots: it
// downloads the raw works dump, flattens works into records, and
// loads/saves record sets as JSONL, CSV, or Parquet.
package snapshot

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/wellcomecollection/enricher/internal/record"
)

// Scanner buffer for long snapshot lines; some works carry very large
// description and note fields.
const maxLineBytes = 10 * 1024 * 1024

// Store loads and saves record snapshots. The field mapping per
// encoding is fixed: JSONL carries the full Record including
// provenance; CSV and Parquet carry the FlatRow projection.
type Store struct{}

// NewStore creates a snapshot store.
func NewStore() *Store {
	return &Store{}
}

// Load reads records from a snapshot file, dispatching on extension.
// Raw catalogue dumps (.json.gz / .jsonl.gz) are parsed and flattened;
// malformed lines are skipped with a warning, not fatal.
func (s *Store) Load(path string) ([]record.Record, error) {
	return s.load(path, -1)
}

// LoadSample reads at most limit records; limit < 0 means all.
func (s *Store) LoadSample(path string, limit int) ([]record.Record, error) {
	return s.load(path, limit)
}

func (s *Store) load(path string, limit int) ([]record.Record, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return s.loadRawGzip(path, limit)
	case strings.HasSuffix(path, ".jsonl") || strings.HasSuffix(path, ".json"):
		return s.loadJSONL(path, limit)
	case strings.HasSuffix(path, ".csv"):
		return s.loadCSV(path, limit)
	case strings.HasSuffix(path, ".parquet"):
		return s.loadParquet(path, limit)
	default:
		return nil, fmt.Errorf("unsupported snapshot format: %s (supported: .json.gz, .jsonl, .csv, .parquet)", filepath.Ext(path))
	}
}

// loadRawGzip streams a raw works dump: gzip, one JSON work per line.
func (s *Store) loadRawGzip(path string, limit int) ([]record.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read gzip snapshot: %w", err)
	}
	defer gz.Close()

	records, err := s.scanWorks(gz, limit)
	if err != nil {
		return nil, err
	}

	logMissingSummary(records)
	return records, nil
}

func (s *Store) scanWorks(r io.Reader, limit int) ([]record.Record, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, maxLineBytes)
	scanner.Buffer(buf, maxLineBytes)

	var records []record.Record
	lineNum := 0
	skipped := 0

	for scanner.Scan() {
		if limit >= 0 && len(records) >= limit {
			break
		}
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		rec, err := ParseWork(line)
		if err != nil {
			skipped++
			slog.Warn("Skipping malformed work", "line", lineNum, "error", err)
			continue
		}
		records = append(records, rec)

		if lineNum%10000 == 0 {
			slog.Debug("Parsing snapshot", "lines_read", lineNum, "records", len(records))
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading snapshot: %w", err)
	}

	slog.Info("Snapshot parsed", "records", len(records), "skipped", skipped)
	return records, nil
}

// loadJSONL reads flattened records, one JSON Record per line.
func (s *Store) loadJSONL(path string, limit int) ([]record.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, maxLineBytes)
	scanner.Buffer(buf, maxLineBytes)

	var records []record.Record
	lineNum := 0

	for scanner.Scan() {
		if limit >= 0 && len(records) >= limit {
			break
		}
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec record.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("failed to parse record at line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading snapshot: %w", err)
	}

	return records, nil
}

func (s *Store) loadCSV(path string, limit int) ([]record.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) == 0 || header[0] != flatHeader[0] {
		return nil, fmt.Errorf("unexpected CSV header, want columns starting with %q", flatHeader[0])
	}

	var records []record.Record
	for {
		if limit >= 0 && len(records) >= limit {
			break
		}
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		records = append(records, rowFromCSV(fields).Expand())
	}

	return records, nil
}

func (s *Store) loadParquet(path string, limit int) ([]record.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[FlatRow](pf)
	defer reader.Close()

	var records []record.Record
	rows := make([]FlatRow, 128) // Read in batches

	for limit < 0 || len(records) < limit {
		n, err := reader.Read(rows)
		if n > 0 {
			if limit >= 0 && len(records)+n > limit {
				n = limit - len(records)
			}
			for _, row := range rows[:n] {
				records = append(records, row.Expand())
			}
		}
		if err != nil {
			break
		}
	}

	return records, nil
}

// Save writes records to path, dispatching on extension the same way
// Load does. Raw gzip dumps cannot be written back.
func (s *Store) Save(records []record.Record, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	switch {
	case strings.HasSuffix(path, ".jsonl") || strings.HasSuffix(path, ".json"):
		return s.saveJSONL(records, path)
	case strings.HasSuffix(path, ".csv"):
		return s.saveCSV(records, path)
	case strings.HasSuffix(path, ".parquet"):
		return s.saveParquet(records, path)
	default:
		return fmt.Errorf("unsupported output format: %s (supported: .jsonl, .csv, .parquet)", filepath.Ext(path))
	}
}

func (s *Store) saveJSONL(records []record.Record, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return fmt.Errorf("failed to encode record %s: %w", records[i].ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return file.Close()
}

func (s *Store) saveCSV(records []record.Record, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(flatHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range records {
		if err := w.Write(Flatten(records[i]).csvFields()); err != nil {
			return fmt.Errorf("failed to write record %s: %w", records[i].ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return file.Close()
}

func (s *Store) saveParquet(records []record.Record, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[FlatRow](file)
	rows := make([]FlatRow, 0, len(records))
	for i := range records {
		rows = append(rows, Flatten(records[i]))
	}
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return file.Close()
}

// logMissingSummary reports how sparse the loaded snapshot is, the
// counts an operator wants to see before deciding to enrich.
func logMissingSummary(records []record.Record) {
	if len(records) == 0 {
		return
	}
	missing := map[string]int{}
	for i := range records {
		for _, field := range record.EnrichableFields() {
			if !records[i].HasField(field) {
				missing[field]++
			}
		}
	}
	slog.Info("Missing value summary",
		"records", len(records),
		"missing_date", missing[record.FieldDate],
		"missing_location", missing[record.FieldLocation],
		"missing_subjects", missing[record.FieldSubjects],
		"missing_creators", missing[record.FieldCreators])
}
