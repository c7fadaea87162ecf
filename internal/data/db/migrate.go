package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/trailmark-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return EnsureProgressIndexes(db)
}

// EnsureProgressIndexes adds indexes gorm tags cannot express. The statements
// are valid on both Postgres and SQLite.
func EnsureProgressIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_progress_record_pending
		ON progress_record(requirement_id, submitted_at)
		WHERE status = 'PENDING';
	`).Error; err != nil {
		return fmt.Errorf("create idx_progress_record_pending: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_points_ledger_member_created
		ON points_ledger_entry(member_id, created_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_points_ledger_member_created: %w", err)
	}
	return nil
}
