package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/trailmark-backend/internal/data/repos"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

type Repos struct {
	Club             repos.ClubRepo
	Member           repos.MemberRepo
	EventParticipant repos.EventParticipantRepo

	Requirement  repos.RequirementRepo
	Badge        repos.BadgeRepo
	QuizQuestion repos.QuizQuestionRepo

	ProgressRecord repos.ProgressRecordRepo
	MemberBadge    repos.MemberBadgeRepo
	PointsLedger   repos.PointsLedgerRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Club:             repos.NewClubRepo(db, log),
		Member:           repos.NewMemberRepo(db, log),
		EventParticipant: repos.NewEventParticipantRepo(db, log),

		Requirement:  repos.NewRequirementRepo(db, log),
		Badge:        repos.NewBadgeRepo(db, log),
		QuizQuestion: repos.NewQuizQuestionRepo(db, log),

		ProgressRecord: repos.NewProgressRecordRepo(db, log),
		MemberBadge:    repos.NewMemberBadgeRepo(db, log),
		PointsLedger:   repos.NewPointsLedgerRepo(db, log),
	}
}
