package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainclub "github.com/yungbote/trailmark-backend/internal/domain/club"
	"github.com/yungbote/trailmark-backend/internal/platform/ctxutil"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
	"github.com/yungbote/trailmark-backend/internal/services"
)

func authEngine(tokens services.TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/me", NewAuthMiddleware(logger.Nop(), tokens).RequireAuth(), func(c *gin.Context) {
		p := ctxutil.GetPrincipal(c.Request.Context())
		c.String(http.StatusOK, p.MemberID.String())
	})
	return r
}

func TestRequireAuthAcceptsBearerAndQueryToken(t *testing.T) {
	tokens := services.NewTokenService(logger.Nop(), "secret")
	memberID := uuid.New()
	tok, err := tokens.IssueToken(ctxutil.Principal{MemberID: memberID, Role: domainclub.RoleMember, ClubID: uuid.New()}, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	r := authEngine(tokens)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "bearer "+tok)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != memberID.String() {
		t.Fatalf("bearer: want=200 %s got=%d %s", memberID, rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me?token="+tok, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("query token: want=200 got=%d", rec.Code)
	}
}

func TestRequireAuthRejects(t *testing.T) {
	r := authEngine(services.NewTokenService(logger.Nop(), "secret"))
	cases := map[string]string{
		"missing":    "",
		"not bearer": "Basic abc",
		"garbage":    "Bearer nope",
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status want=%d got=%d", name, http.StatusUnauthorized, rec.Code)
		}
	}
}
