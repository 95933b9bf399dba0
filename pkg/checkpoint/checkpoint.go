// Package checkpoint persists cross-validation run state so an interrupted
// run can resume without refitting completed folds. Checkpoints are plain
// JSON files written atomically via a temp-file rename.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrInvalidRunID is returned when a run ID contains invalid characters
var ErrInvalidRunID = errors.New("invalid run ID: contains path traversal or invalid characters")

// FoldMetrics is the persisted outcome of one completed fold.
type FoldMetrics struct {
	Fold      int     `json:"fold"`
	TrainRows int     `json:"train_rows"`
	ValRows   int     `json:"val_rows"`
	Accuracy  float64 `json:"accuracy"`
	MicroF1   float64 `json:"micro_f1"`
	AUPRC     float64 `json:"auprc"`
}

// RunCheckpoint represents the state of a partially completed
// cross-validation run.
type RunCheckpoint struct {
	RunID string `json:"run_id"`

	// Timestamp tracking
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
	AttemptCount  int       `json:"attempt_count"`
	LastError     string    `json:"last_error,omitempty"`

	// Fold plan; a resumed run must match both
	Folds int   `json:"folds"`
	Seed  int64 `json:"seed"`

	// Completed folds keyed by fold index
	Completed map[int]FoldMetrics `json:"completed,omitempty"`
}

// Manager manages run checkpoints
type Manager struct {
	checkpointDir string
}

// NewManager creates a new checkpoint manager.
// If checkpointDir is empty, uses os.TempDir()/relmark-checkpoints
func NewManager(checkpointDir string) (*Manager, error) {
	if checkpointDir == "" {
		checkpointDir = filepath.Join(os.TempDir(), "relmark-checkpoints")
	}

	if err := os.MkdirAll(checkpointDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	return &Manager{checkpointDir: checkpointDir}, nil
}

// validateRunID checks that the run ID is safe for use in file paths.
// It rejects IDs containing path separators, path traversal sequences, or null bytes.
func validateRunID(runID string) error {
	if runID == "" {
		return ErrInvalidRunID
	}
	if strings.Contains(runID, "..") {
		return ErrInvalidRunID
	}
	if strings.ContainsAny(runID, `/\`) {
		return ErrInvalidRunID
	}
	if strings.ContainsRune(runID, '\x00') {
		return ErrInvalidRunID
	}
	return nil
}

// isPathWithinDirectory checks that the resolved path is within the expected
// directory.
func isPathWithinDirectory(path, directory string) bool {
	cleanPath := filepath.Clean(path)
	cleanDir := filepath.Clean(directory)

	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}
	return strings.HasPrefix(cleanPath, cleanDir) || cleanPath == filepath.Clean(directory)
}

// Path returns the file path for a run's checkpoint.
func (m *Manager) Path(runID string) (string, error) {
	if err := validateRunID(runID); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("run_%s.json", runID)
	fullPath := filepath.Join(m.checkpointDir, filename)

	if !isPathWithinDirectory(fullPath, m.checkpointDir) {
		return "", ErrInvalidRunID
	}
	return fullPath, nil
}

// New initializes and persists a fresh checkpoint for a run.
func (m *Manager) New(ctx context.Context, runID string, folds int, seed int64) (*RunCheckpoint, error) {
	ck := &RunCheckpoint{
		RunID:     runID,
		CreatedAt: time.Now(),
		Folds:     folds,
		Seed:      seed,
		Completed: make(map[int]FoldMetrics),
	}
	if err := m.Save(ctx, ck); err != nil {
		return nil, err
	}
	return ck, nil
}

// Save persists the checkpoint to disk
func (m *Manager) Save(ctx context.Context, ck *RunCheckpoint) error {
	ck.LastUpdatedAt = time.Now()

	data, err := json.MarshalIndent(ck, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	path, err := m.Path(ck.RunID)
	if err != nil {
		return fmt.Errorf("invalid run ID: %w", err)
	}

	// Write to a temporary file first, then rename for atomic write
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename checkpoint file: %w", err)
	}
	return nil
}

// Load retrieves a checkpoint from disk. A missing checkpoint returns nil
// without error.
func (m *Manager) Load(ctx context.Context, runID string) (*RunCheckpoint, error) {
	path, err := m.Path(runID)
	if err != nil {
		return nil, fmt.Errorf("invalid run ID: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	var ck RunCheckpoint
	if err := json.Unmarshal(data, &ck); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	if ck.Completed == nil {
		ck.Completed = make(map[int]FoldMetrics)
	}
	return &ck, nil
}

// MarkFold records one completed fold and persists the checkpoint.
func (m *Manager) MarkFold(ctx context.Context, runID string, metrics FoldMetrics) error {
	ck, err := m.Load(ctx, runID)
	if err != nil {
		return err
	}
	if ck == nil {
		return fmt.Errorf("checkpoint not found for run %s", runID)
	}

	ck.Completed[metrics.Fold] = metrics
	return m.Save(ctx, ck)
}

// RecordError records an error in the checkpoint
func (m *Manager) RecordError(ctx context.Context, runID string, runErr error) error {
	ck, err := m.Load(ctx, runID)
	if err != nil {
		return err
	}
	if ck == nil {
		return fmt.Errorf("checkpoint not found for run %s", runID)
	}

	ck.AttemptCount++
	ck.LastError = runErr.Error()
	return m.Save(ctx, ck)
}

// Delete removes a checkpoint from disk
func (m *Manager) Delete(ctx context.Context, runID string) error {
	path, err := m.Path(runID)
	if err != nil {
		return fmt.Errorf("invalid run ID: %w", err)
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete checkpoint file: %w", err)
	}
	return nil
}

// List returns all checkpoints in the checkpoint directory
func (m *Manager) List(ctx context.Context) ([]*RunCheckpoint, error) {
	entries, err := os.ReadDir(m.checkpointDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint directory: %w", err)
	}

	var checkpoints []*RunCheckpoint
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(m.checkpointDir, entry.Name()))
		if err != nil {
			continue // Skip files we can't read
		}

		var ck RunCheckpoint
		if err := json.Unmarshal(data, &ck); err != nil {
			continue // Skip files we can't unmarshal
		}
		checkpoints = append(checkpoints, &ck)
	}
	return checkpoints, nil
}

// CleanOld removes checkpoints older than the specified duration
func (m *Manager) CleanOld(ctx context.Context, maxAge time.Duration) (int, error) {
	checkpoints, err := m.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, ck := range checkpoints {
		if ck.LastUpdatedAt.Before(cutoff) {
			if err := m.Delete(ctx, ck.RunID); err != nil {
				continue
			}
			removed++
		}
	}
	return removed, nil
}
