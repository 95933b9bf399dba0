// Package trainer runs the k-fold cross-validation loop: it splits annotated
// records into stratified folds, encodes each side, delegates fitting to an
// Estimator, and scores the held-out fold with accuracy, relation micro-F1
// and AUPRC.
package trainer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/soundprediction/relmark/pkg/checkpoint"
	"github.com/soundprediction/relmark/pkg/classifier"
	"github.com/soundprediction/relmark/pkg/kfold"
	"github.com/soundprediction/relmark/pkg/labels"
	"github.com/soundprediction/relmark/pkg/metrics"
	"github.com/soundprediction/relmark/pkg/tokenize"
	"github.com/soundprediction/relmark/pkg/types"
)

// Estimator fits a classifier on an encoded training batch. Implementations
// typically shell out to a training server or external process.
type Estimator interface {
	Fit(ctx context.Context, train *types.EncodedBatch) (classifier.Classifier, error)
}

// FoldResult holds the held-out scores of one fold.
type FoldResult struct {
	Fold      int
	TrainRows int
	ValRows   int
	Accuracy  float64
	MicroF1   float64
	AUPRC     float64
}

// CrossValidator drives the fold loop.
type CrossValidator struct {
	adapter     *tokenize.Adapter
	labels      *labels.Table
	estimator   Estimator
	tracker     *RunTracker
	checkpoints *checkpoint.Manager
	runID       string
	logger      *slog.Logger
	folds       int
	seed        int64
}

// Options configures a CrossValidator. Tracker, Checkpoints and Logger are
// optional. When Checkpoints is set, completed folds recorded under RunID are
// skipped on resume and the checkpoint is removed once the run finishes.
type Options struct {
	Folds       int
	Seed        int64
	Tracker     *RunTracker
	Checkpoints *checkpoint.Manager
	RunID       string
	Logger      *slog.Logger
}

// NewCrossValidator creates a cross-validator over the given tokenizer
// adapter, label table and estimator.
func NewCrossValidator(adapter *tokenize.Adapter, table *labels.Table, estimator Estimator, opts Options) (*CrossValidator, error) {
	if adapter == nil {
		return nil, fmt.Errorf("tokenizer adapter is required")
	}
	if table == nil {
		return nil, fmt.Errorf("label table is required")
	}
	if estimator == nil {
		return nil, fmt.Errorf("estimator is required")
	}
	if opts.Folds <= 0 {
		opts.Folds = 5
	}
	if opts.Checkpoints != nil && opts.RunID == "" {
		return nil, fmt.Errorf("run ID is required when checkpointing is enabled")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &CrossValidator{
		adapter:     adapter,
		labels:      table,
		estimator:   estimator,
		tracker:     opts.Tracker,
		checkpoints: opts.Checkpoints,
		runID:       opts.RunID,
		logger:      logger,
		folds:       opts.Folds,
		seed:        opts.Seed,
	}, nil
}

// Run executes the full fold loop over annotated records. Every record must
// carry a resolved LabelIndex. Results come back in fold order.
func (cv *CrossValidator) Run(ctx context.Context, records []*types.AnnotatedRecord) ([]FoldResult, error) {
	rowLabels := make([]int, len(records))
	for i, rec := range records {
		if rec.LabelIndex < 0 {
			return nil, fmt.Errorf("record %d has no resolved label index", rec.ID)
		}
		rowLabels[i] = rec.LabelIndex
	}

	cv.adapter.RegisterMarkers()

	splits, err := kfold.Stratified(rowLabels, cv.folds, cv.seed)
	if err != nil {
		return nil, fmt.Errorf("failed to build folds: %w", err)
	}

	completed, err := cv.restoreCheckpoint(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]FoldResult, 0, len(splits))
	for f, split := range splits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if prior, ok := completed[f]; ok {
			cv.logger.Info("fold already completed, skipping", "fold", f, "run_id", cv.runID)
			results = append(results, prior)
			continue
		}

		result, err := cv.runFold(ctx, f, split, records, rowLabels)
		if err != nil {
			if cv.checkpoints != nil {
				if ckErr := cv.checkpoints.RecordError(ctx, cv.runID, err); ckErr != nil {
					cv.logger.Warn("failed to record error in checkpoint", "error", ckErr)
				}
			}
			return nil, fmt.Errorf("fold %d: %w", f, err)
		}
		results = append(results, result)

		cv.logger.Info("fold complete",
			"fold", f,
			"accuracy", result.Accuracy,
			"micro_f1", result.MicroF1,
			"auprc", result.AUPRC)

		if cv.tracker != nil {
			if err := cv.tracker.Add(result); err != nil {
				cv.logger.Warn("failed to record fold metrics", "fold", f, "error", err)
			}
		}
		if cv.checkpoints != nil {
			if err := cv.checkpoints.MarkFold(ctx, cv.runID, checkpoint.FoldMetrics{
				Fold:      result.Fold,
				TrainRows: result.TrainRows,
				ValRows:   result.ValRows,
				Accuracy:  result.Accuracy,
				MicroF1:   result.MicroF1,
				AUPRC:     result.AUPRC,
			}); err != nil {
				cv.logger.Warn("failed to checkpoint fold", "fold", f, "error", err)
			}
		}
	}

	if cv.tracker != nil {
		if err := cv.tracker.Flush(); err != nil {
			cv.logger.Warn("failed to flush run metrics", "error", err)
		}
	}
	if cv.checkpoints != nil {
		if err := cv.checkpoints.Delete(ctx, cv.runID); err != nil {
			cv.logger.Warn("failed to remove run checkpoint", "error", err)
		}
	}
	return results, nil
}

// restoreCheckpoint loads any prior state for this run. A checkpoint written
// with a different fold count or seed would pair stale metrics with different
// splits, so it is rejected.
func (cv *CrossValidator) restoreCheckpoint(ctx context.Context) (map[int]FoldResult, error) {
	if cv.checkpoints == nil {
		return nil, nil
	}

	ck, err := cv.checkpoints.Load(ctx, cv.runID)
	if err != nil {
		return nil, fmt.Errorf("loading run checkpoint: %w", err)
	}
	if ck == nil {
		if _, err := cv.checkpoints.New(ctx, cv.runID, cv.folds, cv.seed); err != nil {
			return nil, fmt.Errorf("creating run checkpoint: %w", err)
		}
		return nil, nil
	}

	if ck.Folds != cv.folds || ck.Seed != cv.seed {
		return nil, fmt.Errorf("checkpoint for run %s was written with folds=%d seed=%d, got folds=%d seed=%d",
			cv.runID, ck.Folds, ck.Seed, cv.folds, cv.seed)
	}

	completed := make(map[int]FoldResult, len(ck.Completed))
	for f, m := range ck.Completed {
		completed[f] = FoldResult{
			Fold:      m.Fold,
			TrainRows: m.TrainRows,
			ValRows:   m.ValRows,
			Accuracy:  m.Accuracy,
			MicroF1:   m.MicroF1,
			AUPRC:     m.AUPRC,
		}
	}
	if len(completed) > 0 {
		cv.logger.Info("resuming run from checkpoint",
			"run_id", cv.runID,
			"completed_folds", len(completed),
			"attempts", ck.AttemptCount)
	}
	return completed, nil
}

func (cv *CrossValidator) runFold(ctx context.Context, fold int, split kfold.Split, records []*types.AnnotatedRecord, rowLabels []int) (FoldResult, error) {
	train, err := cv.encodeRows(split.Train, records, rowLabels)
	if err != nil {
		return FoldResult{}, fmt.Errorf("encoding train rows: %w", err)
	}
	val, err := cv.encodeRows(split.Val, records, rowLabels)
	if err != nil {
		return FoldResult{}, fmt.Errorf("encoding validation rows: %w", err)
	}

	model, err := cv.estimator.Fit(ctx, train)
	if err != nil {
		return FoldResult{}, fmt.Errorf("fitting estimator: %w", err)
	}
	defer model.Close()

	preds, err := model.Predict(ctx, val)
	if err != nil {
		return FoldResult{}, fmt.Errorf("scoring validation rows: %w", err)
	}
	if len(preds) != val.Size() {
		return FoldResult{}, fmt.Errorf("got %d predictions for %d validation rows", len(preds), val.Size())
	}

	predLabels := make([]int, len(preds))
	probs := make([][]float64, len(preds))
	for i, p := range preds {
		predLabels[i] = p.Label
		probs[i] = p.Probs
	}

	result := FoldResult{
		Fold:      fold,
		TrainRows: train.Size(),
		ValRows:   val.Size(),
		Accuracy:  metrics.Accuracy(predLabels, val.Labels),
	}

	// no_relation is excluded from the relation micro-F1, matching the
	// KLUE-RE evaluation protocol.
	if noRel := cv.labels.NoRelationIndex(); noRel >= 0 {
		result.MicroF1 = metrics.MicroF1(predLabels, val.Labels, noRel)
	} else {
		result.MicroF1 = metrics.MicroF1(predLabels, val.Labels)
	}

	auprc, err := metrics.AUPRC(probs, val.Labels, cv.labels.Len())
	if err != nil {
		return FoldResult{}, fmt.Errorf("computing AUPRC: %w", err)
	}
	result.AUPRC = auprc

	return result, nil
}

func (cv *CrossValidator) encodeRows(rows []int, records []*types.AnnotatedRecord, rowLabels []int) (*types.EncodedBatch, error) {
	sentences := make([]string, len(rows))
	indices := make([]int, len(rows))
	for i, row := range rows {
		sentences[i] = records[row].Sentence
		indices[i] = rowLabels[row]
	}
	return cv.adapter.EncodeBatch(sentences, indices)
}
