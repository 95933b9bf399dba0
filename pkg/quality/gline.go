package quality

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/soundprediction/go-gline-rs/pkg/gline"
)

// GlineRecognizer runs a zero-shot GLiNER span model. The candidate label set
// is passed straight through, so it can score the corpus's own entity types.
type GlineRecognizer struct {
	model *gline.Model
	mu    sync.Mutex
}

// NewGlineRecognizer loads a span model from a local directory holding
// model.onnx and tokenizer.json, or from a Hugging Face model id.
func NewGlineRecognizer(modelID string) (*GlineRecognizer, error) {
	if err := gline.Init(); err != nil {
		return nil, fmt.Errorf("failed to init gline: %w", err)
	}

	if _, err := os.Stat(modelID); err == nil {
		modelPath := filepath.Join(modelID, "model.onnx")
		tokPath := filepath.Join(modelID, "tokenizer.json")
		m, err := gline.NewSpanModel(modelPath, tokPath)
		if err != nil {
			return nil, err
		}
		return &GlineRecognizer{model: m}, nil
	}

	m, err := gline.NewSpanModelFromHF(modelID)
	if err != nil {
		return nil, err
	}
	return &GlineRecognizer{model: m}, nil
}

// Recognize implements Recognizer.
func (r *GlineRecognizer) Recognize(text string, candidates []string) ([]Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.model == nil {
		return nil, fmt.Errorf("span model not loaded")
	}

	results, err := r.model.Predict([]string{text}, candidates)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return []Entity{}, nil
	}

	var entities []Entity
	for _, e := range results[0] {
		entities = append(entities, Entity{
			Text:  e.Text,
			Label: e.Label,
			Score: float64(e.Probability),
		})
	}
	return entities, nil
}

// Close implements Recognizer.
func (r *GlineRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.model != nil {
		r.model.Close()
		r.model = nil
	}
	return nil
}
