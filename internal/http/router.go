package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/trailmark-backend/internal/http/handlers"
	httpMW "github.com/yungbote/trailmark-backend/internal/http/middleware"
	"github.com/yungbote/trailmark-backend/internal/observability"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler      *httpH.HealthHandler
	RequirementHandler *httpH.RequirementHandler
	ProgressHandler    *httpH.ProgressHandler
	QuizHandler        *httpH.QuizHandler
	MemberHandler      *httpH.MemberHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Requirements
		if cfg.RequirementHandler != nil {
			protected.GET("/requirements", cfg.RequirementHandler.ListRequirements)
			protected.POST("/requirements", cfg.RequirementHandler.CreateRequirement)
			protected.DELETE("/requirements/:id", cfg.RequirementHandler.DeleteRequirement)
			protected.POST("/requirements/:id/questions", cfg.RequirementHandler.AddQuestion)
			protected.POST("/requirements/:id/assign", cfg.RequirementHandler.Assign)
		}

		// Quiz
		if cfg.QuizHandler != nil {
			protected.GET("/requirements/:id/quiz", cfg.QuizHandler.GetQuiz)
			protected.POST("/requirements/:id/quiz", cfg.QuizHandler.SubmitQuiz)
		}

		// Progress
		if cfg.ProgressHandler != nil {
			protected.POST("/progress", cfg.ProgressHandler.Submit)
			protected.GET("/progress/pending", cfg.ProgressHandler.ListPending)
			protected.PATCH("/progress/:id/approve", cfg.ProgressHandler.Approve)
			protected.PATCH("/progress/:id/reject", cfg.ProgressHandler.Reject)
		}

		// Members
		if cfg.MemberHandler != nil {
			protected.GET("/members/:id/points", cfg.MemberHandler.Points)
			protected.GET("/members/:id/badges", cfg.MemberHandler.Badges)
		}
	}

	return r
}
