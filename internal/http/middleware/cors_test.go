package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func preflight(r *gin.Engine, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/progress", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCORSAllowsLocalDevOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(nil))
	r.POST("/api/progress", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, origin := range []string{"http://localhost:5173", "http://127.0.0.1:3000"} {
		rec := preflight(r, origin)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("%s: status want=%d got=%d", origin, http.StatusNoContent, rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != origin {
			t.Fatalf("%s: allow-origin got=%q", origin, got)
		}
	}
}

func TestCORSConfiguredOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://app.trailmark.example"}))
	r.POST("/api/progress", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	if rec := preflight(r, "https://app.trailmark.example"); rec.Header().Get("Access-Control-Allow-Origin") != "https://app.trailmark.example" {
		t.Fatalf("configured origin not allowed: headers=%v", rec.Header())
	}
	if rec := preflight(r, "http://localhost:5173"); rec.Code != http.StatusForbidden {
		t.Fatalf("dev origin with explicit list: want=%d got=%d", http.StatusForbidden, rec.Code)
	}
}
