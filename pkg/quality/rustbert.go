package quality

import (
	"fmt"
	"sync"

	"github.com/soundprediction/go-rust-bert/pkg/rustbert"
)

// RustBertRecognizer runs a fixed-tagset BERT NER model. The candidate label
// set is ignored; the model emits its own tags (PER, ORG, LOC, MISC).
type RustBertRecognizer struct {
	model *rustbert.NERModel
	mu    sync.Mutex
}

// NewRustBertRecognizer creates a recognizer. The model loads lazily on
// first use.
func NewRustBertRecognizer() *RustBertRecognizer {
	return &RustBertRecognizer{}
}

func (r *RustBertRecognizer) load() error {
	if r.model != nil {
		return nil
	}
	m, err := rustbert.NewNERModel()
	if err != nil {
		return fmt.Errorf("failed to create NER model: %w", err)
	}
	r.model = m
	return nil
}

// Recognize implements Recognizer.
func (r *RustBertRecognizer) Recognize(text string, candidates []string) ([]Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(); err != nil {
		return nil, err
	}

	results, err := r.model.Predict(text)
	if err != nil {
		return nil, fmt.Errorf("NER prediction failed: %w", err)
	}

	entities := make([]Entity, len(results))
	for i, e := range results {
		entities[i] = Entity{
			Text:  e.Word,
			Label: e.Label,
			Score: e.Score,
		}
	}
	return entities, nil
}

// Close implements Recognizer.
func (r *RustBertRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.model != nil {
		r.model.Close()
		r.model = nil
	}
	return nil
}
