package annotate

import (
	"log/slog"
	"slices"
	"sort"

	"github.com/soundprediction/relmark/pkg/labels"
	"github.com/soundprediction/relmark/pkg/types"
)

// Annotator rewrites raw sentences with boundary markers around the subject
// and object entity spans. It is stateless across rows apart from read-only
// access to the injected label table, so Annotate is safe to call from
// concurrent workers.
type Annotator struct {
	labels *labels.Table
	logger *slog.Logger
}

// New creates an annotator. The label table may be nil, in which case label
// indexing is deferred and AnnotatedRecord.LabelIndex is -1.
func New(table *labels.Table, logger *slog.Logger) *Annotator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Annotator{labels: table, logger: logger}
}

// Annotate parses both entity fields, extracts the span texts from the
// original sentence, and produces the marked record. Offsets are rune-based
// and end-inclusive. Rows with unparseable metadata, out-of-range offsets, or
// intersecting spans fail with a typed error naming the row; the caller
// decides whether to skip or abort.
func (a *Annotator) Annotate(rec types.RawRecord) (*types.AnnotatedRecord, error) {
	sub, err := ParseEntityField(rec.ID, rec.SubjectEntity)
	if err != nil {
		return nil, err
	}
	obj, err := ParseEntityField(rec.ID, rec.ObjectEntity)
	if err != nil {
		return nil, err
	}

	runes := []rune(rec.Sentence)

	subject := types.EntitySpan{Type: sub.Type, Start: sub.Start, End: sub.End}
	if !subject.Valid(len(runes)) {
		return nil, &types.MalformedSpanError{RowID: rec.ID, Field: rec.SubjectEntity, Reason: "offsets outside sentence"}
	}
	object := types.EntitySpan{Type: obj.Type, Start: obj.Start, End: obj.End}
	if !object.Valid(len(runes)) {
		return nil, &types.MalformedSpanError{RowID: rec.ID, Field: rec.ObjectEntity, Reason: "offsets outside sentence"}
	}

	subject.Text = string(runes[subject.Start : subject.End+1])
	object.Text = string(runes[object.Start : object.End+1])

	if subject.Overlaps(object) {
		return nil, &types.OverlappingSpanError{RowID: rec.ID, Subject: subject, Object: object}
	}

	labelIndex := -1
	if a.labels != nil {
		labelIndex, err = a.labels.Index(rec.ID, rec.Label)
		if err != nil {
			return nil, err
		}
	}

	return &types.AnnotatedRecord{
		ID:         rec.ID,
		Sentence:   markSentence(runes, subject, object),
		Subject:    subject,
		Object:     object,
		Label:      rec.Label,
		LabelIndex: labelIndex,
	}, nil
}

// insertion is one pending marker write at a rune offset of the original
// sentence.
type insertion struct {
	pos     int
	text    string
	closing bool
}

// markSentence inserts all four markers in a single right-to-left pass over
// positions collected against the original sentence, so no insertion ever
// shifts another's offset. Positions tie only where one span ends exactly
// where the other begins; the opening marker is applied first there so the
// earlier span's closing marker lands before it in the final string.
func markSentence(runes []rune, subject, object types.EntitySpan) string {
	ins := []insertion{
		{pos: subject.Start, text: types.SubjectOpen},
		{pos: subject.End + 1, text: types.SubjectClose, closing: true},
		{pos: object.Start, text: types.ObjectOpen},
		{pos: object.End + 1, text: types.ObjectClose, closing: true},
	}

	sort.Slice(ins, func(i, j int) bool {
		if ins[i].pos != ins[j].pos {
			return ins[i].pos > ins[j].pos
		}
		return !ins[i].closing && ins[j].closing
	})

	out := slices.Clone(runes)
	for _, in := range ins {
		out = slices.Insert(out, in.pos, []rune(in.text)...)
	}
	return string(out)
}
