package curriculum

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/trailmark-backend/internal/domain"
	domaincur "github.com/yungbote/trailmark-backend/internal/domain/curriculum"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

// VisibilityFilter selects requirements a member's hierarchy can see.
//
// RankClass and BadgeID narrow the result only when set; a rank requirement
// that belongs to a badge matches both.
type VisibilityFilter struct {
	RankClass string
	BadgeID   *uuid.UUID

	ClubID   uuid.UUID
	Region   string
	District string
}

// InScope reports whether r's scope is reachable from the filter's hierarchy.
// It mirrors the scope clause of ListVisible and ignores rank and badge.
func (f VisibilityFilter) InScope(r *types.Requirement) bool {
	if r == nil {
		return false
	}
	switch r.Scope {
	case domaincur.ScopeGlobal:
		return true
	case domaincur.ScopeClub:
		return f.ClubID != uuid.Nil && r.ClubID != nil && *r.ClubID == f.ClubID
	case domaincur.ScopeRegion:
		region := strings.TrimSpace(f.Region)
		return region != "" && r.Region != nil && *r.Region == region
	case domaincur.ScopeDistrict:
		district := strings.TrimSpace(f.District)
		return district != "" && r.District != nil && *r.District == district
	}
	return false
}

type RequirementRepo interface {
	Create(dbc dbctx.Context, rows []*types.Requirement) ([]*types.Requirement, error)

	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Requirement, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Requirement, error)

	ListVisible(dbc dbctx.Context, f VisibilityFilter) ([]*types.Requirement, error)

	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type requirementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRequirementRepo(db *gorm.DB, baseLog *logger.Logger) RequirementRepo {
	return &requirementRepo{db: db, log: baseLog.With("repo", "RequirementRepo")}
}

func (r *requirementRepo) Create(dbc dbctx.Context, rows []*types.Requirement) ([]*types.Requirement, error) {
	if len(rows) == 0 {
		return []*types.Requirement{}, nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		row.UpdatedAt = now
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *requirementRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Requirement, error) {
	var out []*types.Requirement
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *requirementRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Requirement, error) {
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

func (r *requirementRepo) ListVisible(dbc dbctx.Context, f VisibilityFilter) ([]*types.Requirement, error) {
	conds := []string{"scope = ?"}
	args := []interface{}{domaincur.ScopeGlobal}
	if f.ClubID != uuid.Nil {
		conds = append(conds, "(scope = ? AND club_id = ?)")
		args = append(args, domaincur.ScopeClub, f.ClubID)
	}
	if region := strings.TrimSpace(f.Region); region != "" {
		conds = append(conds, "(scope = ? AND region = ?)")
		args = append(args, domaincur.ScopeRegion, region)
	}
	if district := strings.TrimSpace(f.District); district != "" {
		conds = append(conds, "(scope = ? AND district = ?)")
		args = append(args, domaincur.ScopeDistrict, district)
	}

	q := dbc.DB(r.db).Where("("+strings.Join(conds, " OR ")+")", args...)
	if rc := strings.TrimSpace(f.RankClass); rc != "" {
		q = q.Where("rank_class = ?", rc)
	}
	// Each filter key applies only when given; a rank requirement that also
	// belongs to a badge shows up under both.
	if f.BadgeID != nil && *f.BadgeID != uuid.Nil {
		q = q.Where("badge_id = ?", *f.BadgeID)
	}

	var out []*types.Requirement
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *requirementRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.Requirement{}).Error
}
