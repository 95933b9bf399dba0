package types

// EncodedBatch holds fixed-width token-id sequences for a batch of sentences.
// All rows share the same width SeqLen after padding and truncation. The batch
// is owned by the training collaborator once returned; the pipeline never
// mutates it afterwards.
type EncodedBatch struct {
	InputIDs      [][]int
	AttentionMask [][]int

	// Labels holds the numeric class index per row, parallel to InputIDs.
	Labels []int

	// SeqLen is the padded width of every row.
	SeqLen int
}

// Size returns the number of rows in the batch.
func (b *EncodedBatch) Size() int {
	if b == nil {
		return 0
	}
	return len(b.InputIDs)
}
