package types

// RawRecord is one row of the input dataset, read-only. SubjectEntity and
// ObjectEntity carry the wire-format span metadata exactly as found in the
// file; parsing happens in pkg/annotate.
type RawRecord struct {
	ID            int64
	Sentence      string
	SubjectEntity string
	ObjectEntity  string
	Label         string
}

// EntitySpan identifies an entity mention inside the original sentence.
// Start and End are rune offsets (the wire format counts characters, not
// bytes) and End is inclusive.
type EntitySpan struct {
	Text  string
	Type  string
	Start int
	End   int
}

// Valid reports whether the span lies inside a sentence of sentenceLen runes.
func (s EntitySpan) Valid(sentenceLen int) bool {
	return s.Start >= 0 && s.Start <= s.End && s.End < sentenceLen
}

// Overlaps reports whether the two inclusive ranges intersect.
func (s EntitySpan) Overlaps(o EntitySpan) bool {
	return s.Start <= o.End && o.Start <= s.End
}

// Len returns the span length in runes.
func (s EntitySpan) Len() int {
	return s.End - s.Start + 1
}

// AnnotatedRecord is the normalized output of span annotation. Sentence holds
// the marked sentence: exactly one [SUB]...[/SUB] region and one
// [OBJ]...[/OBJ] region, each wrapping the original span text unmodified,
// never overlapping and never nesting.
type AnnotatedRecord struct {
	ID       int64
	Sentence string
	Subject  EntitySpan
	Object   EntitySpan
	Label    string

	// LabelIndex is the numeric class index from the label table, or -1 when
	// annotation ran without a table and lookup is deferred to encoding.
	LabelIndex int
}
