package relmark

import (
	"errors"
	"log/slog"

	"github.com/soundprediction/relmark/pkg/annotate"
	"github.com/soundprediction/relmark/pkg/labels"
	"github.com/soundprediction/relmark/pkg/quality"
	"github.com/soundprediction/relmark/pkg/tokenize"
	"github.com/soundprediction/relmark/pkg/types"
)

// Client is the main implementation of the Pipeline interface.
type Client struct {
	annotator *annotate.Annotator
	adapter   *tokenize.Adapter
	labels    *labels.Table
	checker   *quality.Checker
	config    *Config
	logger    *slog.Logger
}

// Config holds configuration for the pipeline client.
type Config struct {
	// Workers bounds the annotation worker pool. Zero selects GOMAXPROCS.
	Workers int
	// WriteParquet also emits a parquet copy next to the prepared CSV.
	WriteParquet bool
}

// PrepareOptions holds options for a bulk Prepare call.
type PrepareOptions struct {
	// Workers overrides the client-level worker count when positive.
	Workers int
	// FailFast aborts on the first malformed row instead of collecting it.
	FailFast bool
}

// RowFailure pairs a rejected input row with the reason it was dropped.
type RowFailure struct {
	RowID int64
	Err   error
}

// PrepareResults holds the outcome of a bulk Prepare call. Records keeps the
// input row order with rejected rows removed.
type PrepareResults struct {
	Records  []*types.AnnotatedRecord
	Failures []RowFailure
}

// NewClient creates a new pipeline client. The label table is required; the
// tokenizer adapter and quality checker are optional and gate the Encode and
// Verify operations respectively.
func NewClient(table *labels.Table, adapter *tokenize.Adapter, checker *quality.Checker, config *Config, logger *slog.Logger) (*Client, error) {
	if table == nil {
		return nil, errors.New("label table is required")
	}
	if config == nil {
		config = &Config{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		annotator: annotate.New(table, logger),
		adapter:   adapter,
		labels:    table,
		checker:   checker,
		config:    config,
		logger:    logger,
	}, nil
}

// GetLabels returns the label table backing this client.
func (c *Client) GetLabels() *labels.Table {
	return c.labels
}

// GetAdapter returns the tokenizer adapter, or nil when encoding is not
// configured.
func (c *Client) GetAdapter() *tokenize.Adapter {
	return c.adapter
}

var (
	// ErrNoAdapter is returned by Encode when no tokenizer adapter was configured.
	ErrNoAdapter = errors.New("no tokenizer adapter configured")
	// ErrNoChecker is returned by Verify when no quality checker was configured.
	ErrNoChecker = errors.New("no quality checker configured")
	// ErrEmptyInput is returned when an operation receives no rows.
	ErrEmptyInput = errors.New("no input rows")
)
