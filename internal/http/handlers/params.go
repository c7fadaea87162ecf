package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trailmark-backend/internal/platform/apierr"
)

func uuidParam(c *gin.Context, name, code string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apierr.BadRequest(code, err)
	}
	return id, nil
}

func uuidQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apierr.BadRequest("invalid_"+name, err)
	}
	return &id, nil
}

func limitQuery(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return n
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apierr.BadRequest("invalid_request", err)
	}
	return nil
}
