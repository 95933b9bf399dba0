package trainer

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/relmark/pkg/checkpoint"
	"github.com/soundprediction/relmark/pkg/classifier"
	"github.com/soundprediction/relmark/pkg/labels"
	"github.com/soundprediction/relmark/pkg/tokenize"
	"github.com/soundprediction/relmark/pkg/types"
)

// fakeSubword tokenizes on whitespace with a growable vocabulary.
type fakeSubword struct {
	mu    sync.Mutex
	vocab map[string]int
}

func newFakeSubword() *fakeSubword {
	return &fakeSubword{vocab: map[string]int{"[PAD]": 0, "[CLS]": 1, "[SEP]": 2}}
}

func (f *fakeSubword) id(tok string) int {
	if v, ok := f.vocab[tok]; ok {
		return v
	}
	v := len(f.vocab)
	f.vocab[tok] = v
	return v
}

func (f *fakeSubword) AddSpecialTokens(tokens []string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	added := 0
	for _, tok := range tokens {
		if _, ok := f.vocab[tok]; !ok {
			f.id(tok)
			added++
		}
	}
	return added
}

func (f *fakeSubword) Encode(text string, addSpecialTokens bool) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int
	if addSpecialTokens {
		ids = append(ids, f.vocab["[CLS]"])
	}
	for _, tok := range strings.Fields(text) {
		ids = append(ids, f.id(tok))
	}
	if addSpecialTokens {
		ids = append(ids, f.vocab["[SEP]"])
	}
	return ids, nil
}

func (f *fakeSubword) Decode(ids []int, skipSpecialTokens bool) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	inverse := make(map[int]string, len(f.vocab))
	for tok, id := range f.vocab {
		inverse[id] = tok
	}
	var out []string
	for _, id := range ids {
		tok := inverse[id]
		if skipSpecialTokens && (tok == "[PAD]" || tok == "[CLS]" || tok == "[SEP]") {
			continue
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

// oracleClassifier predicts every row's true label with full confidence.
type oracleClassifier struct {
	numClasses int
}

func (o *oracleClassifier) Predict(ctx context.Context, batch *types.EncodedBatch) ([]classifier.Prediction, error) {
	preds := make([]classifier.Prediction, batch.Size())
	for i, label := range batch.Labels {
		probs := make([]float64, o.numClasses)
		probs[label] = 1
		preds[i] = classifier.Prediction{Probs: probs, Label: label}
	}
	return preds, nil
}

func (o *oracleClassifier) Health(ctx context.Context) error { return nil }
func (o *oracleClassifier) Close() error                     { return nil }

// oracleEstimator records the batches it was fitted on.
type oracleEstimator struct {
	numClasses int
	fitted     []*types.EncodedBatch
}

func (e *oracleEstimator) Fit(ctx context.Context, train *types.EncodedBatch) (classifier.Classifier, error) {
	e.fitted = append(e.fitted, train)
	return &oracleClassifier{numClasses: e.numClasses}, nil
}

func testTable(t *testing.T) *labels.Table {
	t.Helper()
	table, err := labels.New(map[string]int{
		labels.NoRelation:  0,
		"per:employee_of":  1,
		"org:subsidiaries": 2,
	})
	require.NoError(t, err)
	return table
}

func testRecords(perClass int) []*types.AnnotatedRecord {
	var records []*types.AnnotatedRecord
	names := []string{labels.NoRelation, "per:employee_of", "org:subsidiaries"}
	for class := 0; class < 3; class++ {
		for i := 0; i < perClass; i++ {
			id := int64(class*perClass + i)
			records = append(records, &types.AnnotatedRecord{
				ID:         id,
				Sentence:   fmt.Sprintf("[SUB]sub%d[/SUB] relates to [OBJ]obj%d[/OBJ]", id, id),
				Label:      names[class],
				LabelIndex: class,
			})
		}
	}
	return records
}

func TestCrossValidatorPerfectEstimator(t *testing.T) {
	table := testTable(t)
	adapter := tokenize.NewAdapter(newFakeSubword())
	estimator := &oracleEstimator{numClasses: table.Len()}

	cv, err := NewCrossValidator(adapter, table, estimator, Options{Folds: 5, Seed: 42})
	require.NoError(t, err)

	records := testRecords(10)
	results, err := cv.Run(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, results, 5)

	for f, res := range results {
		assert.Equal(t, f, res.Fold)
		assert.Equal(t, 6, res.ValRows)
		assert.Equal(t, 24, res.TrainRows)
		assert.InDelta(t, 1.0, res.Accuracy, 1e-9)
		assert.InDelta(t, 100.0, res.MicroF1, 1e-9)
		assert.InDelta(t, 100.0, res.AUPRC, 1e-9)
	}
	assert.Len(t, estimator.fitted, 5, "one fit per fold")
}

func TestCrossValidatorRejectsUnresolvedLabels(t *testing.T) {
	table := testTable(t)
	adapter := tokenize.NewAdapter(newFakeSubword())
	cv, err := NewCrossValidator(adapter, table, &oracleEstimator{numClasses: table.Len()}, Options{Folds: 2})
	require.NoError(t, err)

	records := testRecords(4)
	records[3].LabelIndex = -1

	_, err = cv.Run(context.Background(), records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no resolved label index")
}

func TestCrossValidatorHonorsContextCancellation(t *testing.T) {
	table := testTable(t)
	adapter := tokenize.NewAdapter(newFakeSubword())
	cv, err := NewCrossValidator(adapter, table, &oracleEstimator{numClasses: table.Len()}, Options{Folds: 5})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = cv.Run(ctx, testRecords(10))
	assert.ErrorIs(t, err, context.Canceled)
}

// flakyEstimator fails once a fit budget is spent, then behaves like the
// oracle after the budget is reset.
type flakyEstimator struct {
	oracleEstimator
	failAfter int
}

func (e *flakyEstimator) Fit(ctx context.Context, train *types.EncodedBatch) (classifier.Classifier, error) {
	if len(e.fitted) >= e.failAfter {
		return nil, fmt.Errorf("training backend unavailable")
	}
	return e.oracleEstimator.Fit(ctx, train)
}

func TestCrossValidatorResumesFromCheckpoint(t *testing.T) {
	table := testTable(t)
	adapter := tokenize.NewAdapter(newFakeSubword())
	manager, err := checkpoint.NewManager(t.TempDir())
	require.NoError(t, err)

	records := testRecords(10)
	runID := "resume-test"

	// First attempt fails after two folds.
	flaky := &flakyEstimator{oracleEstimator: oracleEstimator{numClasses: table.Len()}, failAfter: 2}
	cv, err := NewCrossValidator(adapter, table, flaky, Options{
		Folds:       5,
		Seed:        42,
		Checkpoints: manager,
		RunID:       runID,
	})
	require.NoError(t, err)

	_, err = cv.Run(context.Background(), records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "training backend unavailable")

	ck, err := manager.Load(context.Background(), runID)
	require.NoError(t, err)
	require.NotNil(t, ck)
	assert.Len(t, ck.Completed, 2)
	assert.Equal(t, 1, ck.AttemptCount)

	// Second attempt skips the completed folds and fits only the rest.
	oracle := &oracleEstimator{numClasses: table.Len()}
	cv, err = NewCrossValidator(adapter, table, oracle, Options{
		Folds:       5,
		Seed:        42,
		Checkpoints: manager,
		RunID:       runID,
	})
	require.NoError(t, err)

	results, err := cv.Run(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, results, 5)
	assert.Len(t, oracle.fitted, 3, "completed folds should not be refitted")
	for f, res := range results {
		assert.Equal(t, f, res.Fold)
		assert.InDelta(t, 1.0, res.Accuracy, 1e-9)
	}

	// The checkpoint is removed once the run finishes.
	ck, err = manager.Load(context.Background(), runID)
	require.NoError(t, err)
	assert.Nil(t, ck)
}

func TestCrossValidatorRejectsMismatchedCheckpoint(t *testing.T) {
	table := testTable(t)
	adapter := tokenize.NewAdapter(newFakeSubword())
	manager, err := checkpoint.NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = manager.New(context.Background(), "run-1", 10, 7)
	require.NoError(t, err)

	cv, err := NewCrossValidator(adapter, table, &oracleEstimator{numClasses: table.Len()}, Options{
		Folds:       5,
		Seed:        42,
		Checkpoints: manager,
		RunID:       "run-1",
	})
	require.NoError(t, err)

	_, err = cv.Run(context.Background(), testRecords(10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "folds=10 seed=7")
}

func TestCrossValidatorRequiresRunIDForCheckpoints(t *testing.T) {
	table := testTable(t)
	adapter := tokenize.NewAdapter(newFakeSubword())
	manager, err := checkpoint.NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = NewCrossValidator(adapter, table, &oracleEstimator{numClasses: table.Len()}, Options{
		Checkpoints: manager,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run ID is required")
}

func TestRunTrackerWritesParquet(t *testing.T) {
	dir := t.TempDir()
	tracker, err := NewRunTracker(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, tracker.RunID())

	for f := 0; f < 3; f++ {
		require.NoError(t, tracker.Add(FoldResult{Fold: f, Accuracy: 0.9, MicroF1: 85, AUPRC: 80}))
	}
	require.NoError(t, tracker.Flush())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "fold_metrics_")

	// A second flush with an empty buffer writes nothing.
	require.NoError(t, tracker.Flush())
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
