package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	appdb "github.com/yungbote/trailmark-backend/internal/data/db"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a migrated database. When TEST_POSTGRES_DSN is set the tests run
// against Postgres; otherwise each test gets its own SQLite file.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	}

	var (
		db  *gorm.DB
		err error
	)
	if dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN")); dsn != "" {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		db, err = appdb.OpenSQLite(filepath.Join(tb.TempDir(), "test.db"), cfg)
	}
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	if err := appdb.AutoMigrateAll(db); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// IsSQLite reports whether db is backed by the SQLite driver.
func IsSQLite(db *gorm.DB) bool {
	return db != nil && db.Dialector != nil && db.Dialector.Name() == "sqlite"
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func PtrUUID(id uuid.UUID) *uuid.UUID { return &id }

func PtrString(s string) *string { return &s }
