package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trailmark-backend/internal/http/response"
	"github.com/yungbote/trailmark-backend/internal/platform/ctxutil"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
	"github.com/yungbote/trailmark-backend/internal/services"
)

type AuthMiddleware struct {
	log    *logger.Logger
	tokens services.TokenService
}

func NewAuthMiddleware(log *logger.Logger, tokens services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), tokens: tokens}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractTokenFromAll(c)
		if tokenString == "" {
			response.Abort(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
			return
		}
		ctx, err := am.tokens.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("rejected access token", "error", err)
			response.Abort(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
			return
		}
		p := ctxutil.GetPrincipal(ctx)
		if p == nil || p.MemberID == uuid.Nil {
			response.Abort(c, http.StatusForbidden, "forbidden", "forbidden")
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractTokenFromAll(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
