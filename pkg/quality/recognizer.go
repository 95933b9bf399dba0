// Package quality spot-checks annotated records against an independent named
// entity recognizer. A span whose type the recognizer disagrees with is
// reported, never rejected: recognizers are noisy, so the checker is
// advisory and fails open.
package quality

// Entity is one recognized span.
type Entity struct {
	Text  string
	Label string
	Score float64
}

// Recognizer extracts entities from raw text. candidates restricts the label
// set for backends that support zero-shot labels; fixed-tagset backends may
// ignore it.
type Recognizer interface {
	Recognize(text string, candidates []string) ([]Entity, error)
	Close() error
}
