// Package tokenize adapts an external subword tokenizer to the pipeline:
// marker registration, fixed-width batch encoding, and a fail-open round-trip
// diagnostic.
package tokenize

import (
	"github.com/sugarme/tokenizer"
)

// Subword is the external tokenizer capability the adapter consumes. Encode
// returns variable-length token ids (with model boundary tokens when
// addSpecialTokens is set); padding and truncation are the adapter's job.
type Subword interface {
	// AddSpecialTokens registers atomic vocabulary entries that are never
	// split into subword pieces, returning how many were newly added.
	AddSpecialTokens(tokens []string) int

	// Encode tokenizes one sentence into vocabulary ids.
	Encode(text string, addSpecialTokens bool) ([]int, error)

	// Decode maps ids back to text.
	Decode(ids []int, skipSpecialTokens bool) string
}

// HFTokenizer binds a HuggingFace-format tokenizer to the Subword contract.
type HFTokenizer struct {
	tk *tokenizer.Tokenizer
}

// NewHFTokenizer wraps an already-loaded tokenizer. Callers typically obtain
// one via the pretrained loader, e.g.:
//
//	path, _ := tokenizer.CachedPath("klue/bert-base", "tokenizer.json")
//	tk, _ := pretrained.FromFile(path)
//	sub := tokenize.NewHFTokenizer(tk)
func NewHFTokenizer(tk *tokenizer.Tokenizer) *HFTokenizer {
	return &HFTokenizer{tk: tk}
}

// AddSpecialTokens implements Subword.
func (h *HFTokenizer) AddSpecialTokens(tokens []string) int {
	added := make([]tokenizer.AddedToken, 0, len(tokens))
	for _, t := range tokens {
		added = append(added, tokenizer.NewAddedToken(t, true))
	}
	return h.tk.AddSpecialTokens(added)
}

// Encode implements Subword.
func (h *HFTokenizer) Encode(text string, addSpecialTokens bool) ([]int, error) {
	encoding, err := h.tk.EncodeSingle(text, addSpecialTokens)
	if err != nil {
		return nil, err
	}
	return encoding.Ids, nil
}

// Decode implements Subword.
func (h *HFTokenizer) Decode(ids []int, skipSpecialTokens bool) string {
	return h.tk.Decode(ids, skipSpecialTokens)
}
