package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/trailmark-backend/internal/domain"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

type QuizQuestionRepo interface {
	Create(dbc dbctx.Context, rows []*types.QuizQuestion) ([]*types.QuizQuestion, error)
	ListByRequirementID(dbc dbctx.Context, requirementID uuid.UUID) ([]*types.QuizQuestion, error)
	DeleteByRequirementID(dbc dbctx.Context, requirementID uuid.UUID) error
}

type quizQuestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuizQuestionRepo {
	return &quizQuestionRepo{db: db, log: baseLog.With("repo", "QuizQuestionRepo")}
}

func (r *quizQuestionRepo) Create(dbc dbctx.Context, rows []*types.QuizQuestion) ([]*types.QuizQuestion, error) {
	if len(rows) == 0 {
		return []*types.QuizQuestion{}, nil
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

func (r *quizQuestionRepo) ListByRequirementID(dbc dbctx.Context, requirementID uuid.UUID) ([]*types.QuizQuestion, error) {
	var out []*types.QuizQuestion
	if requirementID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("requirement_id = ?", requirementID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *quizQuestionRepo) DeleteByRequirementID(dbc dbctx.Context, requirementID uuid.UUID) error {
	if requirementID == uuid.Nil {
		return nil
	}
	return dbc.DB(r.db).Where("requirement_id = ?", requirementID).Delete(&types.QuizQuestion{}).Error
}
