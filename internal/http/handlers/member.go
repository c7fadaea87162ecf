package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/trailmark-backend/internal/http/response"
	"github.com/yungbote/trailmark-backend/internal/services"
)

type MemberHandler struct {
	rewards services.RewardsService
}

func NewMemberHandler(rewards services.RewardsService) *MemberHandler {
	return &MemberHandler{rewards: rewards}
}

// GET /api/members/:id/points?limit=
func (h *MemberHandler) Points(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_member_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	summary, err := h.rewards.Points(c.Request.Context(), id, limitQuery(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, summary)
}

// GET /api/members/:id/badges
func (h *MemberHandler) Badges(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_member_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	badges, err := h.rewards.Badges(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"member_id": id, "badges": badges})
}
