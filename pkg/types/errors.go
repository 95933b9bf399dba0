package types

import "fmt"

// MalformedSpanError reports entity-span metadata that is missing a required
// key or carries a non-integer offset. It is fatal for the row, not the batch.
type MalformedSpanError struct {
	RowID  int64
	Field  string
	Reason string
}

func (e *MalformedSpanError) Error() string {
	return fmt.Sprintf("row %d: malformed entity span %q: %s", e.RowID, e.Field, e.Reason)
}

// OverlappingSpanError reports subject and object ranges that intersect.
// Marker insertion is undefined for overlapping spans, so the row is rejected
// and flagged as a data-quality defect.
type OverlappingSpanError struct {
	RowID   int64
	Subject EntitySpan
	Object  EntitySpan
}

func (e *OverlappingSpanError) Error() string {
	return fmt.Sprintf("row %d: subject span [%d,%d] overlaps object span [%d,%d]",
		e.RowID, e.Subject.Start, e.Subject.End, e.Object.Start, e.Object.End)
}

// UnknownLabelError reports a label string with no registered class index.
type UnknownLabelError struct {
	RowID int64
	Label string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("row %d: label %q has no registered class index", e.RowID, e.Label)
}
