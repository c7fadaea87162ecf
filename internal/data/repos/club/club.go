package club

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/trailmark-backend/internal/domain"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

type ClubRepo interface {
	Create(dbc dbctx.Context, rows []*types.Club) ([]*types.Club, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Club, error)
}

type clubRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClubRepo(db *gorm.DB, baseLog *logger.Logger) ClubRepo {
	return &clubRepo{db: db, log: baseLog.With("repo", "ClubRepo")}
}

func (r *clubRepo) Create(dbc dbctx.Context, rows []*types.Club) ([]*types.Club, error) {
	if len(rows) == 0 {
		return []*types.Club{}, nil
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

func (r *clubRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Club, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Club
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

type EventParticipantRepo interface {
	Register(dbc dbctx.Context, eventID, clubID uuid.UUID) error
	Exists(dbc dbctx.Context, eventID, clubID uuid.UUID) (bool, error)
}

type eventParticipantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventParticipantRepo(db *gorm.DB, baseLog *logger.Logger) EventParticipantRepo {
	return &eventParticipantRepo{db: db, log: baseLog.With("repo", "EventParticipantRepo")}
}

func (r *eventParticipantRepo) Register(dbc dbctx.Context, eventID, clubID uuid.UUID) error {
	if eventID == uuid.Nil || clubID == uuid.Nil {
		return nil
	}
	row := &types.EventParticipant{
		ID:        uuid.New(),
		EventID:   eventID,
		ClubID:    clubID,
		CreatedAt: time.Now().UTC(),
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "club_id"}},
			DoNothing: true,
		}).
		Create(row).Error
}

func (r *eventParticipantRepo) Exists(dbc dbctx.Context, eventID, clubID uuid.UUID) (bool, error) {
	if eventID == uuid.Nil || clubID == uuid.Nil {
		return false, nil
	}
	var n int64
	if err := dbc.DB(r.db).
		Model(&types.EventParticipant{}).
		Where("event_id = ? AND club_id = ?", eventID, clubID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
