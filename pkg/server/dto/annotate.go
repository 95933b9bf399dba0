package dto

import (
	"errors"
	"strings"
)

// RawRow is one raw corpus row submitted for annotation.
type RawRow struct {
	ID            int64  `json:"id"`
	Sentence      string `json:"sentence" binding:"required"`
	SubjectEntity string `json:"subject_entity" binding:"required"`
	ObjectEntity  string `json:"object_entity" binding:"required"`
	Label         string `json:"label"`
}

// Validate performs validation on RawRow
func (r *RawRow) Validate() error {
	if strings.TrimSpace(r.Sentence) == "" {
		return errors.New("sentence cannot be empty")
	}
	if strings.TrimSpace(r.SubjectEntity) == "" {
		return errors.New("subject_entity cannot be empty")
	}
	if strings.TrimSpace(r.ObjectEntity) == "" {
		return errors.New("object_entity cannot be empty")
	}
	return nil
}

// AnnotateRequest asks the server to annotate a batch of raw rows.
type AnnotateRequest struct {
	Records []RawRow `json:"records" binding:"required"`
}

// AnnotatedRow is one successfully annotated row.
type AnnotatedRow struct {
	ID          int64  `json:"id"`
	Sentence    string `json:"sentence"`
	SubjectText string `json:"subject_text"`
	SubjectType string `json:"subject_type"`
	ObjectText  string `json:"object_text"`
	ObjectType  string `json:"object_type"`
	Label       string `json:"label"`
	LabelIndex  int    `json:"label_index"`
}

// RowFailure reports one rejected row.
type RowFailure struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

// AnnotateResponse carries annotated rows and per-row failures.
type AnnotateResponse struct {
	Records  []AnnotatedRow `json:"records"`
	Failures []RowFailure   `json:"failures,omitempty"`
}

// EncodeRequest asks the server to tokenize annotated sentences into one
// padded batch.
type EncodeRequest struct {
	Records []AnnotatedRow `json:"records" binding:"required"`
}

// EncodeResponse is a padded token id batch.
type EncodeResponse struct {
	InputIDs      [][]int `json:"input_ids"`
	AttentionMask [][]int `json:"attention_mask"`
	Labels        []int   `json:"labels"`
	SeqLen        int     `json:"seq_len"`
}
