package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trailmark-backend/internal/http/response"
	"github.com/yungbote/trailmark-backend/internal/platform/apierr"
	"github.com/yungbote/trailmark-backend/internal/services"
)

type ProgressHandler struct {
	workflow services.ProgressWorkflow
}

func NewProgressHandler(workflow services.ProgressWorkflow) *ProgressHandler {
	return &ProgressHandler{workflow: workflow}
}

type submitRequest struct {
	RequirementID uuid.UUID `json:"requirement_id"`
	Text          *string   `json:"text"`
	FileRef       *string   `json:"file_ref"`
}

// POST /api/progress
func (h *ProgressHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := h.workflow.Submit(c.Request.Context(), services.SubmitInput{
		RequirementID: req.RequirementID,
		AnswerText:    req.Text,
		FileRef:       req.FileRef,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"progress":         progressView(res.Record),
		"already_approved": res.AlreadyApproved,
	})
}

// PATCH /api/progress/:id/approve
func (h *ProgressHandler) Approve(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_progress_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := h.workflow.Approve(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, approveView(res))
}

type rejectRequest struct {
	Comment *string `json:"comment"`
}

// PATCH /api/progress/:id/reject
func (h *ProgressHandler) Reject(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_progress_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req rejectRequest
	// The body is optional.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondErr(c, apierr.BadRequest("invalid_request", err))
		return
	}
	rec, err := h.workflow.Reject(c.Request.Context(), services.RejectInput{ProgressID: id, Comment: req.Comment})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": progressView(rec)})
}

// GET /api/progress/pending?limit=
func (h *ProgressHandler) ListPending(c *gin.Context) {
	rows, err := h.workflow.ListPending(c.Request.Context(), limitQuery(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"pending": progressViews(rows)})
}
