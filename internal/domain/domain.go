package domain

import (
	"github.com/yungbote/trailmark-backend/internal/domain/club"
	"github.com/yungbote/trailmark-backend/internal/domain/curriculum"
	"github.com/yungbote/trailmark-backend/internal/domain/progress"
)

type Requirement = curriculum.Requirement
type Badge = curriculum.Badge
type QuizQuestion = curriculum.QuizQuestion
type Resolved = curriculum.Resolved
type OverrideKeyStrategy = curriculum.OverrideKeyStrategy

type Club = club.Club
type Member = club.Member
type EventParticipant = club.EventParticipant

type ProgressRecord = progress.ProgressRecord
type MemberBadge = progress.MemberBadge
type PointsLedgerEntry = progress.PointsLedgerEntry
type Notification = progress.Notification

// Models lists every persisted type in migration order.
func Models() []interface{} {
	return []interface{}{
		&club.Club{},
		&club.Member{},
		&club.EventParticipant{},

		&curriculum.Badge{},
		&curriculum.Requirement{},
		&curriculum.QuizQuestion{},

		&progress.ProgressRecord{},
		&progress.MemberBadge{},
		&progress.PointsLedgerEntry{},
	}
}
