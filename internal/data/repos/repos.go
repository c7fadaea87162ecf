package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/trailmark-backend/internal/data/repos/club"
	"github.com/yungbote/trailmark-backend/internal/data/repos/curriculum"
	"github.com/yungbote/trailmark-backend/internal/data/repos/progress"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

type ClubRepo = club.ClubRepo
type MemberRepo = club.MemberRepo
type EventParticipantRepo = club.EventParticipantRepo

type RequirementRepo = curriculum.RequirementRepo
type BadgeRepo = curriculum.BadgeRepo
type QuizQuestionRepo = curriculum.QuizQuestionRepo
type VisibilityFilter = curriculum.VisibilityFilter

type ProgressRecordRepo = progress.ProgressRecordRepo
type MemberBadgeRepo = progress.MemberBadgeRepo
type PointsLedgerRepo = progress.PointsLedgerRepo
type PendingFilter = progress.PendingFilter

func NewClubRepo(db *gorm.DB, baseLog *logger.Logger) ClubRepo { return club.NewClubRepo(db, baseLog) }
func NewMemberRepo(db *gorm.DB, baseLog *logger.Logger) MemberRepo {
	return club.NewMemberRepo(db, baseLog)
}
func NewEventParticipantRepo(db *gorm.DB, baseLog *logger.Logger) EventParticipantRepo {
	return club.NewEventParticipantRepo(db, baseLog)
}

func NewRequirementRepo(db *gorm.DB, baseLog *logger.Logger) RequirementRepo {
	return curriculum.NewRequirementRepo(db, baseLog)
}
func NewBadgeRepo(db *gorm.DB, baseLog *logger.Logger) BadgeRepo {
	return curriculum.NewBadgeRepo(db, baseLog)
}
func NewQuizQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuizQuestionRepo {
	return curriculum.NewQuizQuestionRepo(db, baseLog)
}

func NewProgressRecordRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRecordRepo {
	return progress.NewProgressRecordRepo(db, baseLog)
}
func NewMemberBadgeRepo(db *gorm.DB, baseLog *logger.Logger) MemberBadgeRepo {
	return progress.NewMemberBadgeRepo(db, baseLog)
}
func NewPointsLedgerRepo(db *gorm.DB, baseLog *logger.Logger) PointsLedgerRepo {
	return progress.NewPointsLedgerRepo(db, baseLog)
}
