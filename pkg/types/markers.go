package types

// Boundary markers inserted around entity spans. They are registered with the
// subword tokenizer as atomic special tokens so they never split into pieces.
const (
	SubjectOpen  = "[SUB]"
	SubjectClose = "[/SUB]"
	ObjectOpen   = "[OBJ]"
	ObjectClose  = "[/OBJ]"
)

// BoundaryMarkers returns the four marker tokens in registration order.
func BoundaryMarkers() []string {
	return []string{SubjectOpen, SubjectClose, ObjectOpen, ObjectClose}
}
