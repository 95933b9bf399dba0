package checkpoint

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	return m
}

func TestManagerNewAndLoad(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	ck, err := m.New(ctx, "run-1", 5, 42)
	require.NoError(t, err)
	assert.Equal(t, "run-1", ck.RunID)
	assert.False(t, ck.CreatedAt.IsZero())

	loaded, err := m.Load(ctx, "run-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 5, loaded.Folds)
	assert.Equal(t, int64(42), loaded.Seed)
	assert.Empty(t, loaded.Completed)
}

func TestManagerLoadMissing(t *testing.T) {
	m := newTestManager(t)

	ck, err := m.Load(context.Background(), "never-saved")
	require.NoError(t, err)
	assert.Nil(t, ck)
}

func TestManagerMarkFold(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.New(ctx, "run-1", 3, 7)
	require.NoError(t, err)

	require.NoError(t, m.MarkFold(ctx, "run-1", FoldMetrics{
		Fold:      0,
		TrainRows: 20,
		ValRows:   10,
		Accuracy:  0.9,
		MicroF1:   85.0,
		AUPRC:     80.0,
	}))
	require.NoError(t, m.MarkFold(ctx, "run-1", FoldMetrics{Fold: 2, ValRows: 10}))

	loaded, err := m.Load(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, loaded.Completed, 2)
	assert.Equal(t, 20, loaded.Completed[0].TrainRows)
	assert.Equal(t, 85.0, loaded.Completed[0].MicroF1)
	_, hasFold1 := loaded.Completed[1]
	assert.False(t, hasFold1)
}

func TestManagerRecordError(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.New(ctx, "run-1", 5, 42)
	require.NoError(t, err)

	require.NoError(t, m.RecordError(ctx, "run-1", assert.AnError))
	require.NoError(t, m.RecordError(ctx, "run-1", assert.AnError))

	loaded, err := m.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.AttemptCount)
	assert.Equal(t, assert.AnError.Error(), loaded.LastError)
}

func TestManagerDelete(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.New(ctx, "run-1", 5, 42)
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, "run-1"))

	loaded, err := m.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Deleting a missing checkpoint is not an error
	require.NoError(t, m.Delete(ctx, "run-1"))
}

func TestManagerList(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.New(ctx, "run-a", 5, 1)
	require.NoError(t, err)
	_, err = m.New(ctx, "run-b", 10, 2)
	require.NoError(t, err)

	checkpoints, err := m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, checkpoints, 2)
}

func TestManagerCleanOld(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	old, err := m.New(ctx, "stale", 5, 1)
	require.NoError(t, err)
	_, err = m.New(ctx, "fresh", 5, 2)
	require.NoError(t, err)

	// Backdate the stale checkpoint on disk, bypassing Save's timestamp refresh
	old.LastUpdatedAt = time.Now().Add(-48 * time.Hour)
	raw, err := json.Marshal(old)
	require.NoError(t, err)
	path, err := m.Path("stale")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0644))

	removed, err := m.CleanOld(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	remaining, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "fresh", remaining[0].RunID)
}

func TestValidateRunID(t *testing.T) {
	tests := []struct {
		name    string
		runID   string
		wantErr bool
	}{
		{"valid uuid", "0b5e7a9c-3f2d-4e8a-9c1b-6d4f8e2a7b3c", false},
		{"valid simple", "run-42", false},
		{"empty", "", true},
		{"traversal", "../../etc/passwd", true},
		{"slash", "runs/1", true},
		{"backslash", `runs\1`, true},
		{"null byte", "run\x001", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRunID(tt.runID)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRunID)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestManagerPathRejectsTraversal(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Path("../escape")
	assert.ErrorIs(t, err, ErrInvalidRunID)
}
