package dataset

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/soundprediction/relmark/pkg/types"
)

// ParquetRow is the columnar schema of the normalized dataset.
type ParquetRow struct {
	ID           int64  `parquet:"id"`
	Sentence     string `parquet:"sentence"`
	Subject      string `parquet:"subject_entity"`
	Object       string `parquet:"object_entity"`
	SubjectType  string `parquet:"subject_type"`
	ObjectType   string `parquet:"object_type"`
	Label        string `parquet:"label"`
	LabelIndex   int32  `parquet:"label_index"`
	SubjectStart int32  `parquet:"subject_start"`
	SubjectEnd   int32  `parquet:"subject_end"`
	ObjectStart  int32  `parquet:"object_start"`
	ObjectEnd    int32  `parquet:"object_end"`
}

// WriteParquet writes the normalized annotated dataset to a Parquet file.
func WriteParquet(path string, records []*types.AnnotatedRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("no records to write")
	}

	rows := make([]ParquetRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, ParquetRow{
			ID:           rec.ID,
			Sentence:     rec.Sentence,
			Subject:      rec.Subject.Text,
			Object:       rec.Object.Text,
			SubjectType:  rec.Subject.Type,
			ObjectType:   rec.Object.Type,
			Label:        rec.Label,
			LabelIndex:   int32(rec.LabelIndex),
			SubjectStart: int32(rec.Subject.Start),
			SubjectEnd:   int32(rec.Subject.End),
			ObjectStart:  int32(rec.Object.Start),
			ObjectEnd:    int32(rec.Object.End),
		})
	}

	return parquet.WriteFile(path, rows)
}
