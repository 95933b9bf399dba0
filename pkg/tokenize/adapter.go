package tokenize

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/soundprediction/relmark/pkg/types"
)

// DefaultMaxLength caps encoded sequences, matching the original pipeline.
const DefaultMaxLength = 256

// Adapter encodes marked sentences into fixed-width padded batches. Marker
// registration is a one-time initialization barrier: EncodeBatch forces it
// before any encoding, so concurrent encode calls never race a vocabulary
// mutation.
type Adapter struct {
	sub       Subword
	maxLength int
	padID     int
	logger    *slog.Logger

	registerOnce sync.Once
	addedTokens  int
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithMaxLength overrides the truncation cap.
func WithMaxLength(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.maxLength = n
		}
	}
}

// WithPadID overrides the padding token id (default 0).
func WithPadID(id int) Option {
	return func(a *Adapter) { a.padID = id }
}

// WithLogger attaches a logger for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAdapter wraps a subword tokenizer.
func NewAdapter(sub Subword, opts ...Option) *Adapter {
	a := &Adapter{
		sub:       sub,
		maxLength: DefaultMaxLength,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RegisterMarkers adds the four boundary markers as atomic special tokens.
// Safe to call any number of times from any goroutine; only the first call
// touches the vocabulary. Returns how many tokens that first call added.
func (a *Adapter) RegisterMarkers() int {
	a.registerOnce.Do(func() {
		a.addedTokens = a.sub.AddSpecialTokens(types.BoundaryMarkers())
		a.logger.Debug("registered boundary markers", "added", a.addedTokens)
	})
	return a.addedTokens
}

// EncodeBatch encodes sentences into a fixed-width batch. Sequences are
// truncated at the max length and padded to the longest remaining sequence.
// labels must be parallel to sentences (nil for unlabeled batches).
// Deterministic given identical input order and tokenizer state.
func (a *Adapter) EncodeBatch(sentences []string, labelIndices []int) (*types.EncodedBatch, error) {
	if labelIndices != nil && len(labelIndices) != len(sentences) {
		return nil, fmt.Errorf("got %d labels for %d sentences", len(labelIndices), len(sentences))
	}

	a.RegisterMarkers()

	encoded := make([][]int, len(sentences))
	longest := 0
	for i, sentence := range sentences {
		ids, err := a.sub.Encode(sentence, true)
		if err != nil {
			return nil, fmt.Errorf("failed to encode sentence %d: %w", i, err)
		}
		if len(ids) > a.maxLength {
			ids = ids[:a.maxLength]
		}
		if len(ids) > longest {
			longest = len(ids)
		}
		encoded[i] = ids
	}

	batch := &types.EncodedBatch{
		InputIDs:      make([][]int, len(encoded)),
		AttentionMask: make([][]int, len(encoded)),
		SeqLen:        longest,
	}
	for i, ids := range encoded {
		row := make([]int, longest)
		mask := make([]int, longest)
		for j := range row {
			if j < len(ids) {
				row[j] = ids[j]
				mask[j] = 1
			} else {
				row[j] = a.padID
			}
		}
		batch.InputIDs[i] = row
		batch.AttentionMask[i] = mask
	}

	if labelIndices != nil {
		batch.Labels = make([]int, len(labelIndices))
		copy(batch.Labels, labelIndices)
	}

	return batch, nil
}

// VerifyRoundtrip encodes and decodes one sentence and reports whether every
// boundary marker survived tokenization intact. Diagnostic only: any failure
// is logged, never propagated, so the pipeline keeps running.
func (a *Adapter) VerifyRoundtrip(sentence string) bool {
	a.RegisterMarkers()

	ids, err := a.sub.Encode(sentence, true)
	if err != nil {
		a.logger.Warn("roundtrip encode failed", "error", err)
		return false
	}

	decoded := a.sub.Decode(ids, false)
	for _, marker := range types.BoundaryMarkers() {
		if strings.Contains(sentence, marker) && !strings.Contains(decoded, marker) {
			a.logger.Warn("boundary marker lost in roundtrip", "marker", marker, "decoded", decoded)
			return false
		}
	}

	a.logger.Debug("roundtrip ok", "decoded", decoded)
	return true
}
