package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresName     string
	PostgresSSLMode  string

	SQLitePath string

	MaxOpenConns int
}

func (c Config) PostgresDSN() string {
	ssl := strings.TrimSpace(c.PostgresSSLMode)
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresName,
		ssl,
	)
}

type Service struct {
	db     *gorm.DB
	log    *logger.Logger
	driver string
}

// Open connects to the configured driver. SQLite is intended for local runs
// and tests; it is capped to one open connection so writers serialize.
func Open(logg *logger.Logger, cfg Config) (*Service, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverPostgres
	}
	serviceLog := logg.With("service", "DatabaseService", "driver", driver)

	gormCfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold:             1 * time.Second,
				LogLevel:                  gormLogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case DriverPostgres:
		db, err = gorm.Open(postgres.Open(cfg.PostgresDSN()), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
	case DriverSQLite:
		path := strings.TrimSpace(cfg.SQLitePath)
		if path == "" {
			path = "trailmark.db"
		}
		db, err = OpenSQLite(path, gormCfg)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	if driver == DriverPostgres && cfg.MaxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("postgres pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	serviceLog.Info("Database connected")
	return &Service{db: db, log: serviceLog, driver: driver}, nil
}

// OpenSQLite opens a file-backed SQLite database with a single connection.
func OpenSQLite(path string, gormCfg *gorm.Config) (*gorm.DB, error) {
	if gormCfg == nil {
		gormCfg = &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Silent)}
	}
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_foreign_keys=off"), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) Driver() string { return s.driver }

func (s *Service) AutoMigrateAll() error {
	if err := AutoMigrateAll(s.db); err != nil {
		return err
	}
	s.log.Info("Database migrated")
	return nil
}

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
