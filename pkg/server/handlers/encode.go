package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/relmark"
	"github.com/soundprediction/relmark/pkg/server/dto"
	"github.com/soundprediction/relmark/pkg/types"
)

// EncodeHandler handles batch encoding requests
type EncodeHandler struct {
	encoder relmark.BatchEncoder
}

// NewEncodeHandler creates a new encode handler
func NewEncodeHandler(encoder relmark.BatchEncoder) *EncodeHandler {
	return &EncodeHandler{encoder: encoder}
}

// Encode handles POST /api/v1/encode
func (h *EncodeHandler) Encode(c *gin.Context) {
	var req dto.EncodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}
	if len(req.Records) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "records cannot be empty",
		})
		return
	}

	records := make([]*types.AnnotatedRecord, len(req.Records))
	for i, row := range req.Records {
		records[i] = &types.AnnotatedRecord{
			ID:         row.ID,
			Sentence:   row.Sentence,
			Subject:    types.EntitySpan{Text: row.SubjectText, Type: row.SubjectType},
			Object:     types.EntitySpan{Text: row.ObjectText, Type: row.ObjectType},
			Label:      row.Label,
			LabelIndex: row.LabelIndex,
		}
	}

	batch, err := h.encoder.Encode(c.Request.Context(), records)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, relmark.ErrNoAdapter) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, dto.ErrorResponse{
			Error:   "encoding_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.EncodeResponse{
		InputIDs:      batch.InputIDs,
		AttentionMask: batch.AttentionMask,
		Labels:        batch.Labels,
		SeqLen:        batch.SeqLen,
	})
}
