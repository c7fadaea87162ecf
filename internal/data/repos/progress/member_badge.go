package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/trailmark-backend/internal/domain"
	domainprog "github.com/yungbote/trailmark-backend/internal/domain/progress"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

type MemberBadgeRepo interface {
	Get(dbc dbctx.Context, memberID, badgeID uuid.UUID) (*types.MemberBadge, error)
	ListByMember(dbc dbctx.Context, memberID uuid.UUID) ([]*types.MemberBadge, error)

	// EnsureInProgress creates an IN_PROGRESS row when none exists. Existing rows are not touched.
	EnsureInProgress(dbc dbctx.Context, memberID, badgeID uuid.UUID) error

	// MarkCompleted moves the pair to COMPLETED. completed is true only for the
	// call that performed the transition.
	MarkCompleted(dbc dbctx.Context, memberID, badgeID uuid.UUID, at time.Time) (completed bool, err error)
}

type memberBadgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemberBadgeRepo(db *gorm.DB, baseLog *logger.Logger) MemberBadgeRepo {
	return &memberBadgeRepo{db: db, log: baseLog.With("repo", "MemberBadgeRepo")}
}

func memberBadgeConflict() []clause.Column {
	return []clause.Column{{Name: "member_id"}, {Name: "badge_id"}}
}

func (r *memberBadgeRepo) Get(dbc dbctx.Context, memberID, badgeID uuid.UUID) (*types.MemberBadge, error) {
	if memberID == uuid.Nil || badgeID == uuid.Nil {
		return nil, nil
	}
	var row types.MemberBadge
	if err := dbc.DB(r.db).
		Where("member_id = ? AND badge_id = ?", memberID, badgeID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *memberBadgeRepo) ListByMember(dbc dbctx.Context, memberID uuid.UUID) ([]*types.MemberBadge, error) {
	var out []*types.MemberBadge
	if memberID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("member_id = ?", memberID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *memberBadgeRepo) EnsureInProgress(dbc dbctx.Context, memberID, badgeID uuid.UUID) error {
	if memberID == uuid.Nil || badgeID == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	row := &types.MemberBadge{
		ID:        uuid.New(),
		MemberID:  memberID,
		BadgeID:   badgeID,
		Status:    domainprog.BadgeInProgress,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{Columns: memberBadgeConflict(), DoNothing: true}).
		Create(row).Error
}

func (r *memberBadgeRepo) MarkCompleted(dbc dbctx.Context, memberID, badgeID uuid.UUID, at time.Time) (bool, error) {
	if memberID == uuid.Nil || badgeID == uuid.Nil {
		return false, nil
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	now := time.Now().UTC()
	row := &types.MemberBadge{
		ID:        uuid.New(),
		MemberID:  memberID,
		BadgeID:   badgeID,
		Status:    domainprog.BadgeCompleted,
		AwardedAt: &at,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   memberBadgeConflict(),
			DoUpdates: clause.AssignmentColumns([]string{"status", "awarded_at", "updated_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "member_badge.status <> ?", Vars: []interface{}{domainprog.BadgeCompleted}},
			}},
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
