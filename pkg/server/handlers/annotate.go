package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/relmark"
	"github.com/soundprediction/relmark/pkg/server/dto"
	"github.com/soundprediction/relmark/pkg/types"
)

// AnnotateHandler handles span annotation requests
type AnnotateHandler struct {
	preparer relmark.RecordPreparer
}

// NewAnnotateHandler creates a new annotate handler
func NewAnnotateHandler(preparer relmark.RecordPreparer) *AnnotateHandler {
	return &AnnotateHandler{preparer: preparer}
}

// Annotate handles POST /api/v1/annotate
func (h *AnnotateHandler) Annotate(c *gin.Context) {
	var req dto.AnnotateRequest
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
	for _, row := range req.Records {
		if err := row.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
			return
		}
	}

	raw := make([]types.RawRecord, len(req.Records))
	for i, row := range req.Records {
		raw[i] = types.RawRecord{
			ID:            row.ID,
			Sentence:      row.Sentence,
			SubjectEntity: row.SubjectEntity,
			ObjectEntity:  row.ObjectEntity,
			Label:         row.Label,
		}
	}

	results, err := h.preparer.Prepare(c.Request.Context(), raw, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "annotation_failed",
			Message: err.Error(),
		})
		return
	}

	response := dto.AnnotateResponse{
		Records: make([]dto.AnnotatedRow, len(results.Records)),
	}
	for i, rec := range results.Records {
		response.Records[i] = dto.AnnotatedRow{
			ID:          rec.ID,
			Sentence:    rec.Sentence,
			SubjectText: rec.Subject.Text,
			SubjectType: rec.Subject.Type,
			ObjectText:  rec.Object.Text,
			ObjectType:  rec.Object.Type,
			Label:       rec.Label,
			LabelIndex:  rec.LabelIndex,
		}
	}
	for _, failure := range results.Failures {
		response.Failures = append(response.Failures, dto.RowFailure{
			ID:     failure.RowID,
			Reason: failure.Err.Error(),
		})
	}

	c.JSON(http.StatusOK, response)
}
