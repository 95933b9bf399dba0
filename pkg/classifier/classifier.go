// Package classifier defines the interface to the relation classification
// model and a remote HTTP implementation. The model itself runs out of
// process; this package only moves encoded batches to it and probability
// matrices back.
package classifier

import (
	"context"

	"github.com/soundprediction/relmark/pkg/types"
)

// Prediction holds the model output for one input row.
type Prediction struct {
	// Probs is the per-class probability distribution.
	Probs []float64 `json:"probs"`
	// Label is the argmax class index.
	Label int `json:"label"`
}

// Classifier scores encoded batches against the relation label set.
type Classifier interface {
	// Predict returns one Prediction per row of the batch, in row order.
	Predict(ctx context.Context, batch *types.EncodedBatch) ([]Prediction, error)

	// Health reports whether the backing model is reachable and loaded.
	Health(ctx context.Context) error

	// Close releases any resources held by the classifier.
	Close() error
}

// Argmax returns the index of the largest probability, or -1 for an empty
// distribution.
func Argmax(probs []float64) int {
	best := -1
	for i, p := range probs {
		if best < 0 || p > probs[best] {
			best = i
		}
	}
	return best
}
