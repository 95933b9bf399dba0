package tokenize

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/relmark/pkg/types"
)

// fakeSubword tokenizes on whitespace with a growable vocabulary and wraps
// every sequence in [CLS]/[SEP], enough to exercise padding, truncation, and
// marker registration without model files.
type fakeSubword struct {
	mu      sync.Mutex
	vocab   map[string]int
	inverse []string
	special map[string]bool
}

func newFakeSubword() *fakeSubword {
	f := &fakeSubword{vocab: map[string]int{}, special: map[string]bool{}}
	for _, t := range []string{"[PAD]", "[CLS]", "[SEP]"} {
		f.id(t)
		f.special[t] = true
	}
	return f
}

func (f *fakeSubword) id(token string) int {
	if idx, ok := f.vocab[token]; ok {
		return idx
	}
	idx := len(f.inverse)
	f.vocab[token] = idx
	f.inverse = append(f.inverse, token)
	return idx
}

func (f *fakeSubword) AddSpecialTokens(tokens []string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	added := 0
	for _, t := range tokens {
		if _, ok := f.vocab[t]; !ok {
			f.id(t)
			added++
		}
		f.special[t] = true
	}
	return added
}

func (f *fakeSubword) Encode(text string, addSpecialTokens bool) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []int
	if addSpecialTokens {
		ids = append(ids, f.vocab["[CLS]"])
	}
	for _, tok := range strings.Fields(text) {
		ids = append(ids, f.id(tok))
	}
	if addSpecialTokens {
		ids = append(ids, f.vocab["[SEP]"])
	}
	return ids, nil
}

func (f *fakeSubword) Decode(ids []int, skipSpecialTokens bool) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, id := range ids {
		if id < 0 || id >= len(f.inverse) {
			continue
		}
		tok := f.inverse[id]
		if skipSpecialTokens && f.special[tok] {
			continue
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

func (f *fakeSubword) vocabSize() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inverse)
}

func TestRegisterMarkersIdempotent(t *testing.T) {
	sub := newFakeSubword()
	adapter := NewAdapter(sub)

	before := sub.vocabSize()
	added := adapter.RegisterMarkers()
	assert.Equal(t, 4, added)
	afterFirst := sub.vocabSize()
	assert.Equal(t, before+4, afterFirst)

	// Second call changes nothing.
	adapter.RegisterMarkers()
	assert.Equal(t, afterFirst, sub.vocabSize())

	// A fresh adapter over the same tokenizer also adds nothing new.
	assert.Equal(t, 0, NewAdapter(sub).RegisterMarkers())
	assert.Equal(t, afterFirst, sub.vocabSize())
}

func TestEncodeBatchPadsToLongest(t *testing.T) {
	adapter := NewAdapter(newFakeSubword())

	batch, err := adapter.EncodeBatch([]string{
		"[SUB]Kim[/SUB] works at [OBJ]Acme[/OBJ]",
		"short one",
	}, []int{6, 0})
	require.NoError(t, err)

	require.Equal(t, 2, batch.Size())
	// Row 0: CLS + 4 tokens + SEP = 6, row 1: CLS + 2 + SEP = 4, padded to 6.
	assert.Equal(t, 6, batch.SeqLen)
	assert.Len(t, batch.InputIDs[1], 6)
	assert.Equal(t, []int{1, 1, 1, 1, 0, 0}, batch.AttentionMask[1])
	assert.Equal(t, []int{6, 0}, batch.Labels)

	// Padding uses the pad id.
	assert.Equal(t, 0, batch.InputIDs[1][5])
}

func TestEncodeBatchTruncates(t *testing.T) {
	adapter := NewAdapter(newFakeSubword(), WithMaxLength(4))

	batch, err := adapter.EncodeBatch([]string{"a b c d e f g h"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, batch.SeqLen)
	assert.Len(t, batch.InputIDs[0], 4)
	assert.Equal(t, []int{1, 1, 1, 1}, batch.AttentionMask[0])
	assert.Nil(t, batch.Labels)
}

func TestEncodeBatchLabelMismatch(t *testing.T) {
	adapter := NewAdapter(newFakeSubword())

	_, err := adapter.EncodeBatch([]string{"a", "b"}, []int{1})
	assert.Error(t, err)
}

func TestEncodeBatchDeterministic(t *testing.T) {
	sub := newFakeSubword()
	adapter := NewAdapter(sub)

	sentences := []string{"[SUB]Kim[/SUB] met [OBJ]Lee[/OBJ]", "Kim met Lee"}
	first, err := adapter.EncodeBatch(sentences, nil)
	require.NoError(t, err)
	second, err := adapter.EncodeBatch(sentences, nil)
	require.NoError(t, err)

	assert.Equal(t, first.InputIDs, second.InputIDs)
	assert.Equal(t, first.AttentionMask, second.AttentionMask)
}

func TestVerifyRoundtrip(t *testing.T) {
	sub := newFakeSubword()
	adapter := NewAdapter(sub)

	marked := "[SUB]Kim[/SUB] works at [OBJ]Acme[/OBJ]"
	assert.True(t, adapter.VerifyRoundtrip(marked))
	assert.True(t, adapter.VerifyRoundtrip("no markers at all"))
}

func TestVerifyRoundtripFailsOpen(t *testing.T) {
	sub := newFakeSubword()
	adapter := NewAdapter(sub)

	// Force marker loss by corrupting the vocabulary entry for the opening
	// marker after registration.
	marked := "[SUB] Kim [/SUB] works"
	adapter.RegisterMarkers()
	sub.mu.Lock()
	for i, tok := range sub.inverse {
		if tok == types.SubjectOpen {
			sub.inverse[i] = "[SU" // marker no longer round-trips
		}
	}
	sub.mu.Unlock()

	// Returns false but does not panic or error out.
	assert.False(t, adapter.VerifyRoundtrip(marked))
}

func TestMarkersStayAtomic(t *testing.T) {
	sub := newFakeSubword()
	adapter := NewAdapter(sub)
	adapter.RegisterMarkers()

	ids, err := sub.Encode("[SUB]Kim[/SUB]", true)
	require.NoError(t, err)

	decoded := sub.Decode(ids, false)
	assert.Contains(t, decoded, types.SubjectOpen)
	assert.Contains(t, decoded, types.SubjectClose)
}
