package trainer

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
)

// FoldMetricRecord represents a single log entry for fold evaluation metrics
type FoldMetricRecord struct {
	ID        string    `parquet:"id"`
	RunID     string    `parquet:"run_id"`
	Timestamp time.Time `parquet:"timestamp"`
	Fold      int       `parquet:"fold"`
	TrainRows int       `parquet:"train_rows"`
	ValRows   int       `parquet:"val_rows"`
	Accuracy  float64   `parquet:"accuracy"`
	MicroF1   float64   `parquet:"micro_f1"`
	AUPRC     float64   `parquet:"auprc"`
}

// RunTracker handles persistence of per-fold metrics to Parquet files. All
// folds of one Run share a run id so downstream analysis can group them.
type RunTracker struct {
	outputDir string
	runID     string
	mu        sync.Mutex
	buffer    []FoldMetricRecord
	batchSize int
}

// NewRunTracker creates a new tracker writing to a directory
func NewRunTracker(outputDir string) (*RunTracker, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run tracking directory: %w", err)
	}

	tracker := &RunTracker{
		outputDir: outputDir,
		runID:     uuid.New().String(),
		buffer:    make([]FoldMetricRecord, 0, 16),
		batchSize: 16,
	}

	return tracker, nil
}

// RunID returns the identifier shared by all records of this tracker.
func (t *RunTracker) RunID() string {
	return t.runID
}

// Add buffers one fold result for persistence.
func (t *RunTracker) Add(result FoldResult) error {
	record := FoldMetricRecord{
		ID:        uuid.New().String(),
		RunID:     t.runID,
		Timestamp: time.Now().UTC(),
		Fold:      result.Fold,
		TrainRows: result.TrainRows,
		ValRows:   result.ValRows,
		Accuracy:  result.Accuracy,
		MicroF1:   result.MicroF1,
		AUPRC:     result.AUPRC,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.buffer = append(t.buffer, record)

	if len(t.buffer) >= t.batchSize {
		return t.flush()
	}

	return nil
}

// Flush writes any buffered records to a new Parquet file.
func (t *RunTracker) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flush()
}

// flush writes the current buffer to a new Parquet file
// Caller must hold the lock
func (t *RunTracker) flush() error {
	if len(t.buffer) == 0 {
		return nil
	}

	filename := fmt.Sprintf("fold_metrics_%s_%d.parquet", time.Now().Format("20060102_150405"), time.Now().UnixNano())
	path := filepath.Join(t.outputDir, filename)

	if err := parquet.WriteFile(path, t.buffer); err != nil {
		return fmt.Errorf("failed to write fold metrics parquet file: %w", err)
	}

	// Clear buffer
	t.buffer = t.buffer[:0]
	return nil
}
