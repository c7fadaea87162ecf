package app

import (
	"strings"
	"time"

	"github.com/yungbote/trailmark-backend/internal/data/db"
	"github.com/yungbote/trailmark-backend/internal/observability"
	"github.com/yungbote/trailmark-backend/internal/platform/envutil"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
	"github.com/yungbote/trailmark-backend/internal/realtime/bus"
)

type Config struct {
	Port           string
	JWTSecretKey   string
	AccessTokenTTL time.Duration
	AllowedOrigins []string

	DB    db.Config
	Redis bus.RedisConfig

	BillingGrace   time.Duration
	QuizSampleSize int

	MetricsEnabled        bool
	MetricsScrapeInterval time.Duration
	Otel                  observability.OtelConfig
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:           envutil.String("PORT", "8080", log),
		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTokenTTL: envutil.Duration("ACCESS_TOKEN_TTL", time.Hour, log),
		AllowedOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "", log)),

		DB: db.Config{
			Driver:           envutil.String("DB_DRIVER", db.DriverPostgres, log),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost", log),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432", log),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres", log),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", "", log),
			PostgresName:     envutil.String("POSTGRES_NAME", "trailmark", log),
			PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable", log),
			SQLitePath:       envutil.String("SQLITE_PATH", "trailmark.db", log),
			MaxOpenConns:     envutil.Int("POSTGRES_MAX_OPEN_CONNS", 20, log),
		},
		Redis: bus.RedisConfig{
			Addr:     envutil.String("REDIS_ADDR", "", log),
			Password: envutil.String("REDIS_PASSWORD", "", log),
			DB:       envutil.Int("REDIS_DB", 0, log),
			Channel:  envutil.String("REDIS_CHANNEL", "trailmark.notifications", log),
		},

		BillingGrace:   time.Duration(envutil.Int("BILLING_GRACE_DAYS", 7, log)) * 24 * time.Hour,
		QuizSampleSize: envutil.Int("QUIZ_SAMPLE_SIZE", 3, log),

		MetricsEnabled:        envutil.Bool("METRICS_ENABLED", false),
		MetricsScrapeInterval: envutil.Duration("METRICS_SCRAPE_INTERVAL", 10*time.Second, log),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "trailmark", log),
			Environment: envutil.String("OTEL_ENVIRONMENT", "development", log),
			Version:     envutil.String("OTEL_SERVICE_VERSION", "", log),
			SampleRatio: float64(envutil.Int("OTEL_SAMPLE_PERCENT", 100, log)) / 100,
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", log),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
