package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/trailmark-backend/internal/domain"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

type BadgeRepo interface {
	Create(dbc dbctx.Context, rows []*types.Badge) ([]*types.Badge, error)
	// UpsertByName returns the stored badge with the given name, creating it when absent.
	UpsertByName(dbc dbctx.Context, name, area string) (*types.Badge, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Badge, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Badge, error)
}

type badgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBadgeRepo(db *gorm.DB, baseLog *logger.Logger) BadgeRepo {
	return &badgeRepo{db: db, log: baseLog.With("repo", "BadgeRepo")}
}

func (r *badgeRepo) Create(dbc dbctx.Context, rows []*types.Badge) ([]*types.Badge, error) {
	if len(rows) == 0 {
		return []*types.Badge{}, nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		row.CreatedAt = now
		row.UpdatedAt = now
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *badgeRepo) UpsertByName(dbc dbctx.Context, name, area string) (*types.Badge, error) {
	now := time.Now().UTC()
	row := &types.Badge{ID: uuid.New(), Name: name, Area: area, CreatedAt: now, UpdatedAt: now}
	if err := dbc.DB(r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(row).Error; err != nil {
		return nil, err
	}
	var out types.Badge
	if err := dbc.DB(r.db).Where("name = ?", name).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *badgeRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Badge, error) {
	var out []*types.Badge
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *badgeRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Badge, error) {
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
