package relmark

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/soundprediction/relmark/pkg/dataset"
	"github.com/soundprediction/relmark/pkg/quality"
	"github.com/soundprediction/relmark/pkg/types"
	"github.com/soundprediction/relmark/pkg/utils"
)

// Prepare implements RecordPreparer. Rows fan out over a worker pool; results
// keep the input order and malformed rows land in Failures rather than
// aborting the batch.
func (c *Client) Prepare(ctx context.Context, records []types.RawRecord, options *PrepareOptions) (*PrepareResults, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}
	if options == nil {
		options = &PrepareOptions{}
	}

	workers := c.config.Workers
	if options.Workers > 0 {
		workers = options.Workers
	}

	pool := utils.NewWorkerPool(workers, func(ctx context.Context, rec types.RawRecord) (*types.AnnotatedRecord, error) {
		return c.annotator.Annotate(rec)
	})
	annotated, errs := pool.ProcessItems(ctx, records)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := &PrepareResults{
		Records: make([]*types.AnnotatedRecord, 0, len(records)),
	}
	for i := range records {
		if errs[i] != nil {
			if options.FailFast {
				return nil, fmt.Errorf("row %d: %w", records[i].ID, errs[i])
			}
			results.Failures = append(results.Failures, RowFailure{RowID: records[i].ID, Err: errs[i]})
			continue
		}
		results.Records = append(results.Records, annotated[i])
	}

	c.logger.Info("prepared batch",
		"rows", len(records),
		"annotated", len(results.Records),
		"rejected", len(results.Failures))
	return results, nil
}

// PrepareRecord implements RecordPreparer.
func (c *Client) PrepareRecord(ctx context.Context, record types.RawRecord) (*types.AnnotatedRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.annotator.Annotate(record)
}

// PrepareFile implements RecordPreparer. The prepared dataset is written as
// prepared.csv under outputDir, plus prepared.parquet when configured.
func (c *Client) PrepareFile(ctx context.Context, inputPath, outputDir string) (*PrepareResults, error) {
	records, err := dataset.LoadCSV(inputPath)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}

	results, err := c.Prepare(ctx, records, nil)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if err := dataset.WriteCSV(filepath.Join(outputDir, "prepared.csv"), results.Records); err != nil {
		return nil, fmt.Errorf("writing prepared csv: %w", err)
	}
	if c.config.WriteParquet {
		if err := dataset.WriteParquet(filepath.Join(outputDir, "prepared.parquet"), results.Records); err != nil {
			return nil, fmt.Errorf("writing prepared parquet: %w", err)
		}
	}

	return results, nil
}

// Encode implements BatchEncoder. Every record must carry a resolved label
// index.
func (c *Client) Encode(ctx context.Context, records []*types.AnnotatedRecord) (*types.EncodedBatch, error) {
	if c.adapter == nil {
		return nil, ErrNoAdapter
	}
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.adapter.RegisterMarkers()

	sentences := make([]string, len(records))
	indices := make([]int, len(records))
	for i, rec := range records {
		if rec.LabelIndex < 0 {
			return nil, fmt.Errorf("record %d has no resolved label index", rec.ID)
		}
		sentences[i] = rec.Sentence
		indices[i] = rec.LabelIndex
	}
	return c.adapter.EncodeBatch(sentences, indices)
}

// Verify implements QualityVerifier.
func (c *Client) Verify(ctx context.Context, records []*types.AnnotatedRecord) ([]quality.Report, error) {
	if c.checker == nil {
		return nil, ErrNoChecker
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.checker.CheckAll(records), nil
}

// Close implements Pipeline.
func (c *Client) Close(ctx context.Context) error {
	if c.checker != nil {
		return c.checker.Close()
	}
	return nil
}
