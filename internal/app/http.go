package app

import (
	"github.com/yungbote/trailmark-backend/internal/http"
	httpH "github.com/yungbote/trailmark-backend/internal/http/handlers"
	httpMW "github.com/yungbote/trailmark-backend/internal/http/middleware"
	"github.com/yungbote/trailmark-backend/internal/observability"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health      *httpH.HealthHandler
	Requirement *httpH.RequirementHandler
	Progress    *httpH.ProgressHandler
	Quiz        *httpH.QuizHandler
	Member      *httpH.MemberHandler
}

func wireHandlers(log *logger.Logger, services Services, checks map[string]httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(checks),
		Requirement: httpH.NewRequirementHandler(services.Resolver, services.Curriculum, services.Workflow),
		Progress:    httpH.NewProgressHandler(services.Workflow),
		Quiz:        httpH.NewQuizHandler(services.Quiz),
		Member:      httpH.NewMemberHandler(services.Rewards),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Tokens),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.NewServer(http.RouterConfig{
		Log:                log,
		Metrics:            metrics,
		ServiceName:        serviceName,
		AllowedOrigins:     cfg.AllowedOrigins,
		AuthMiddleware:     middleware.Auth,
		HealthHandler:      handlers.Health,
		RequirementHandler: handlers.Requirement,
		ProgressHandler:    handlers.Progress,
		QuizHandler:        handlers.Quiz,
		MemberHandler:      handlers.Member,
	})
}
