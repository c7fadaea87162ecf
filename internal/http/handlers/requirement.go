package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trailmark-backend/internal/http/response"
	"github.com/yungbote/trailmark-backend/internal/services"
)

type RequirementHandler struct {
	resolver   services.RequirementResolver
	curriculum services.CurriculumService
	workflow   services.ProgressWorkflow
}

func NewRequirementHandler(
	resolver services.RequirementResolver,
	curriculum services.CurriculumService,
	workflow services.ProgressWorkflow,
) *RequirementHandler {
	return &RequirementHandler{resolver: resolver, curriculum: curriculum, workflow: workflow}
}

// GET /api/requirements?rank_class=&badge_id=&member_id=
func (h *RequirementHandler) ListRequirements(c *gin.Context) {
	badgeID, err := uuidQuery(c, "badge_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	memberID, err := uuidQuery(c, "member_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	params := services.ResolveParams{
		RankClass: strings.TrimSpace(c.Query("rank_class")),
		BadgeID:   badgeID,
	}
	if memberID != nil {
		params.MemberID = *memberID
	}
	list, err := h.resolver.Resolve(c.Request.Context(), params)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"member_id":    list.Member.ID,
		"requirements": resolvedViews(list.Rows),
	})
}

type createRequirementRequest struct {
	Code        string     `json:"code"`
	Description string     `json:"description"`
	Area        string     `json:"area"`
	RankClass   string     `json:"rank_class"`
	BadgeID     *uuid.UUID `json:"badge_id"`
	Kind        string     `json:"kind"`
	Scope       string     `json:"scope"`
	EventID     *uuid.UUID `json:"event_id"`
}

// POST /api/requirements
func (h *RequirementHandler) CreateRequirement(c *gin.Context) {
	var req createRequirementRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	created, err := h.curriculum.CreateRequirement(c.Request.Context(), services.CreateRequirementInput{
		Code:        strings.TrimSpace(req.Code),
		Description: strings.TrimSpace(req.Description),
		Area:        strings.TrimSpace(req.Area),
		RankClass:   strings.TrimSpace(req.RankClass),
		BadgeID:     req.BadgeID,
		Kind:        strings.ToUpper(strings.TrimSpace(req.Kind)),
		Scope:       strings.ToUpper(strings.TrimSpace(req.Scope)),
		EventID:     req.EventID,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"requirement": requirementView(created)})
}

// DELETE /api/requirements/:id
func (h *RequirementHandler) DeleteRequirement(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_requirement_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := h.curriculum.DeleteRequirement(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

type addQuestionRequest struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// POST /api/requirements/:id/questions
func (h *RequirementHandler) AddQuestion(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_requirement_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req addQuestionRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	q, err := h.curriculum.AddQuestion(c.Request.Context(), services.AddQuestionInput{
		RequirementID: id,
		Text:          strings.TrimSpace(req.Text),
		Options:       req.Options,
		CorrectIndex:  req.CorrectIndex,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"question": QuestionView{ID: q.ID, RequirementID: q.RequirementID, Text: q.Text}})
}

type assignRequest struct {
	MemberIDs []uuid.UUID `json:"member_ids"`
}

// POST /api/requirements/:id/assign
func (h *RequirementHandler) Assign(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_requirement_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req assignRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := h.workflow.Assign(c.Request.Context(), services.AssignInput{RequirementID: id, MemberIDs: req.MemberIDs})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}
