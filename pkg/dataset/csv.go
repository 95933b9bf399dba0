// Package dataset reads the raw tabular input and writes the normalized
// annotated dataset in CSV and Parquet form.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/soundprediction/relmark/pkg/types"
)

// Required input columns. Any additional columns are ignored.
var requiredColumns = []string{"id", "sentence", "subject_entity", "object_entity", "label"}

// LoadCSV reads raw records from a CSV file, locating columns by header name.
func LoadCSV(path string) ([]types.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset %s is empty", path)
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("dataset %s is missing column %q", path, name)
		}
	}

	records := make([]types.RawRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		id, err := strconv.ParseInt(row[col["id"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: id %q is not an integer", n+2, row[col["id"]])
		}
		records = append(records, types.RawRecord{
			ID:            id,
			Sentence:      row[col["sentence"]],
			SubjectEntity: row[col["subject_entity"]],
			ObjectEntity:  row[col["object_entity"]],
			Label:         row[col["label"]],
		})
	}
	return records, nil
}

// WriteCSV writes the normalized annotated dataset. Span offsets keep the
// original "[start, end]" list rendering so downstream consumers of the old
// format stay compatible.
func WriteCSV(path string, records []*types.AnnotatedRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"id", "sentence", "subject_entity", "object_entity",
		"subject_type", "object_type", "label", "subject_idx", "object_idx",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		row := []string{
			strconv.FormatInt(rec.ID, 10),
			rec.Sentence,
			rec.Subject.Text,
			rec.Object.Text,
			rec.Subject.Type,
			rec.Object.Type,
			rec.Label,
			spanIdx(rec.Subject),
			spanIdx(rec.Object),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func spanIdx(s types.EntitySpan) string {
	return fmt.Sprintf("[%d, %d]", s.Start, s.End)
}
