package relmark

import (
	"context"

	"github.com/soundprediction/relmark/pkg/quality"
	"github.com/soundprediction/relmark/pkg/types"
)

// This file defines focused interfaces that follow the Interface Segregation
// Principle. The Pipeline interface is composed from these smaller interfaces;
// consumers should depend on the smallest interface that meets their needs.

// RecordPreparer turns raw corpus rows into marked, label-resolved records.
type RecordPreparer interface {
	// Prepare annotates a batch of raw rows concurrently. Row order is
	// preserved; malformed rows are collected as failures unless options
	// request fail-fast.
	Prepare(ctx context.Context, records []types.RawRecord, options *PrepareOptions) (*PrepareResults, error)

	// PrepareRecord annotates a single raw row.
	PrepareRecord(ctx context.Context, record types.RawRecord) (*types.AnnotatedRecord, error)

	// PrepareFile loads a raw CSV corpus, annotates it, and writes the
	// prepared dataset under outputDir.
	PrepareFile(ctx context.Context, inputPath, outputDir string) (*PrepareResults, error)
}

// BatchEncoder turns annotated records into padded id batches for the model.
type BatchEncoder interface {
	// Encode tokenizes annotated sentences into one padded batch.
	Encode(ctx context.Context, records []*types.AnnotatedRecord) (*types.EncodedBatch, error)
}

// QualityVerifier spot-checks annotated spans against an independent
// recognizer.
type QualityVerifier interface {
	// Verify returns reports for the rows that disagreed with the recognizer.
	Verify(ctx context.Context, records []*types.AnnotatedRecord) ([]quality.Report, error)
}

// Pipeline is the main interface for preparing relation extraction corpora.
type Pipeline interface {
	RecordPreparer
	BatchEncoder
	QualityVerifier

	// Close releases resources held by the pipeline.
	Close(ctx context.Context) error
}

// Compile-time check that Client implements the full Pipeline.
var _ Pipeline = (*Client)(nil)
