package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/trailmark-backend/internal/domain"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

type PointsLedgerRepo interface {
	Append(dbc dbctx.Context, rows []*types.PointsLedgerEntry) ([]*types.PointsLedgerEntry, error)
	ListByMember(dbc dbctx.Context, memberID uuid.UUID, limit int) ([]*types.PointsLedgerEntry, error)
	SumByMember(dbc dbctx.Context, memberID uuid.UUID) (int64, error)
}

type pointsLedgerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPointsLedgerRepo(db *gorm.DB, baseLog *logger.Logger) PointsLedgerRepo {
	return &pointsLedgerRepo{db: db, log: baseLog.With("repo", "PointsLedgerRepo")}
}

func (r *pointsLedgerRepo) Append(dbc dbctx.Context, rows []*types.PointsLedgerEntry) ([]*types.PointsLedgerEntry, error) {
	if len(rows) == 0 {
		return []*types.PointsLedgerEntry{}, nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *pointsLedgerRepo) ListByMember(dbc dbctx.Context, memberID uuid.UUID, limit int) ([]*types.PointsLedgerEntry, error) {
	var out []*types.PointsLedgerEntry
	if memberID == uuid.Nil {
		return out, nil
	}
	q := dbc.DB(r.db).
		Where("member_id = ?", memberID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pointsLedgerRepo) SumByMember(dbc dbctx.Context, memberID uuid.UUID) (int64, error) {
	if memberID == uuid.Nil {
		return 0, nil
	}
	var total int64
	if err := dbc.DB(r.db).
		Model(&types.PointsLedgerEntry{}).
		Where("member_id = ?", memberID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
