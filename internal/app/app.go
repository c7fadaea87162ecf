package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/trailmark-backend/internal/data/db"
	"github.com/yungbote/trailmark-backend/internal/http"
	httpH "github.com/yungbote/trailmark-backend/internal/http/handlers"
	"github.com/yungbote/trailmark-backend/internal/observability"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
	"github.com/yungbote/trailmark-backend/internal/realtime/bus"
	"github.com/yungbote/trailmark-backend/internal/services"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Repos    Repos
	Services Services
	Bus      bus.Bus
	Metrics  *observability.Metrics

	dbSvc        *db.Service
	redis        *bus.RedisBus
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, cfg.Otel)
	metrics := observability.Init(log, cfg.MetricsEnabled, cfg.MetricsScrapeInterval)

	dbSvc, err := db.Open(log, cfg.DB)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbSvc.AutoMigrateAll(); err != nil {
		_ = dbSvc.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := dbSvc.DB()

	// Redis is optional; without it notifications stay in-process.
	var (
		notificationBus bus.Bus
		redisBus        *bus.RedisBus
	)
	if cfg.Redis.Addr != "" {
		redisBus, err = bus.NewRedisBus(log, cfg.Redis)
		if err != nil {
			_ = dbSvc.Close()
			log.Sync()
			return nil, fmt.Errorf("init redis bus: %w", err)
		}
		notificationBus = redisBus
	} else {
		log.Warn("REDIS_ADDR not set; using in-process notification bus")
		notificationBus = bus.NewMemoryBus(log)
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, services.NewBusNotifier(notificationBus), metrics)

	checks := map[string]httpH.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := theDB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisBus != nil {
		checks["redis"] = func(ctx context.Context) error { return redisBus.Client().Ping(ctx).Err() }
	}

	handlerset := wireHandlers(log, serviceset, checks)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, metrics, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Bus:          notificationBus,
		Metrics:      metrics,
		dbSvc:        dbSvc,
		redis:        redisBus,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches background collectors and the notification forwarder.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
	if a.redis != nil {
		a.Metrics.StartRedisCollector(ctx, a.Log, a.redis.Client())
	}

	fwdLog := a.Log.With("component", "NotificationForwarder")
	return a.Bus.StartForwarder(ctx, func(msg bus.Message) {
		fwdLog.Debug("notification delivered", "channel", msg.Channel, "event", msg.Event)
	})
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("HTTP server listening", "port", a.Cfg.Port)
		errCh <- a.Server.Run(":" + a.Cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Services.Dispatcher != nil {
		a.Services.Dispatcher.Wait()
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			a.Log.Warn("notification bus close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.dbSvc != nil {
		if err := a.dbSvc.Close(); err != nil {
			a.Log.Warn("database close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
