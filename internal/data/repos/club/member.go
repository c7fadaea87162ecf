package club

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/trailmark-backend/internal/domain"
	domainclub "github.com/yungbote/trailmark-backend/internal/domain/club"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

type MemberRepo interface {
	Create(dbc dbctx.Context, rows []*types.Member) ([]*types.Member, error)

	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Member, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Member, error)

	// LockByID reads the member row with SELECT ... FOR UPDATE. Call inside a transaction.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Member, error)

	// AddPoints increments the cached points total and, when lastMilestone is
	// non-nil, raises the milestone watermark in the same statement.
	AddPoints(dbc dbctx.Context, id uuid.UUID, delta int, lastMilestone *int) error

	ListClubStaff(dbc dbctx.Context, clubID uuid.UUID, roles []string) ([]*types.Member, error)
	ListUnitStaff(dbc dbctx.Context, clubID, unitID uuid.UUID, roles []string) ([]*types.Member, error)
	// ListHierarchyReviewers returns REGIONAL members whose club is in region and
	// DISTRICT members whose club is in district.
	ListHierarchyReviewers(dbc dbctx.Context, region, district string) ([]*types.Member, error)
}

type memberRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemberRepo(db *gorm.DB, baseLog *logger.Logger) MemberRepo {
	return &memberRepo{db: db, log: baseLog.With("repo", "MemberRepo")}
}

func (r *memberRepo) Create(dbc dbctx.Context, rows []*types.Member) ([]*types.Member, error) {
	if len(rows) == 0 {
		return []*types.Member{}, nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.Role == "" {
			row.Role = domainclub.RoleMember
		}
		row.CreatedAt = now
		row.UpdatedAt = now
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *memberRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Member, error) {
	var out []*types.Member
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *memberRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Member, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *memberRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Member, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Member
	err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *memberRepo) AddPoints(dbc dbctx.Context, id uuid.UUID, delta int, lastMilestone *int) error {
	if id == uuid.Nil {
		return nil
	}
	updates := map[string]interface{}{
		"points":     gorm.Expr("points + ?", delta),
		"updated_at": time.Now().UTC(),
	}
	if lastMilestone != nil {
		updates["last_milestone"] = *lastMilestone
	}
	return dbc.DB(r.db).
		Model(&types.Member{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *memberRepo) ListClubStaff(dbc dbctx.Context, clubID uuid.UUID, roles []string) ([]*types.Member, error) {
	var out []*types.Member
	if clubID == uuid.Nil || len(roles) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("club_id = ? AND role IN ?", clubID, roles).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *memberRepo) ListUnitStaff(dbc dbctx.Context, clubID, unitID uuid.UUID, roles []string) ([]*types.Member, error) {
	var out []*types.Member
	if clubID == uuid.Nil || unitID == uuid.Nil || len(roles) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("club_id = ? AND unit_id = ? AND role IN ?", clubID, unitID, roles).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *memberRepo) ListHierarchyReviewers(dbc dbctx.Context, region, district string) ([]*types.Member, error) {
	region = strings.TrimSpace(region)
	district = strings.TrimSpace(district)
	var out []*types.Member
	if region == "" && district == "" {
		return out, nil
	}
	conds := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)
	if region != "" {
		conds = append(conds, "(member.role = ? AND club.region = ?)")
		args = append(args, domainclub.RoleRegional, region)
	}
	if district != "" {
		conds = append(conds, "(member.role = ? AND club.district = ?)")
		args = append(args, domainclub.RoleDistrict, district)
	}
	if err := dbc.DB(r.db).
		Model(&types.Member{}).
		Select("member.*").
		Joins("JOIN club ON club.id = member.club_id").
		Where(strings.Join(conds, " OR "), args...).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
