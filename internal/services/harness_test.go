package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trailmark-backend/internal/data/aggregates"
	aggtest "github.com/yungbote/trailmark-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/trailmark-backend/internal/data/repos"
	repotest "github.com/yungbote/trailmark-backend/internal/data/repos/testutil"
	types "github.com/yungbote/trailmark-backend/internal/domain"
	domainprog "github.com/yungbote/trailmark-backend/internal/domain/progress"
	"github.com/yungbote/trailmark-backend/internal/platform/ctxutil"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domainprog.Notification
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, memberID uuid.UUID, title, message, severity string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, domainprog.Notification{MemberID: memberID, Title: title, Message: message, Severity: severity})
	return n.err
}

func (n *recordingNotifier) to(memberID uuid.UUID) []domainprog.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domainprog.Notification
	for _, s := range n.sent {
		if s.MemberID == memberID {
			out = append(out, s)
		}
	}
	return out
}

type harness struct {
	db *gorm.DB

	reqs         repos.RequirementRepo
	progress     repos.ProgressRecordRepo
	members      repos.MemberRepo
	clubs        repos.ClubRepo
	participants repos.EventParticipantRepo

	notifier   *recordingNotifier
	hooks      *aggtest.HooksRecorder
	runner     *aggtest.RollbackRunner
	dispatcher *NotificationDispatcher

	resolver   RequirementResolver
	workflow   ProgressWorkflow
	quiz       QuizService
	curriculum CurriculumService
	rewards    RewardsService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)

	h := &harness{
		db:           db,
		reqs:         repos.NewRequirementRepo(db, log),
		progress:     repos.NewProgressRecordRepo(db, log),
		members:      repos.NewMemberRepo(db, log),
		clubs:        repos.NewClubRepo(db, log),
		participants: repos.NewEventParticipantRepo(db, log),
		notifier:     &recordingNotifier{},
		hooks:        &aggtest.HooksRecorder{},
		runner:       aggtest.NewRollbackRunner(db),
	}
	badges := repos.NewBadgeRepo(db, log)
	questions := repos.NewQuizQuestionRepo(db, log)
	memberBadges := repos.NewMemberBadgeRepo(db, log)
	ledger := repos.NewPointsLedgerRepo(db, log)

	agg := aggregates.NewProgressAggregate(aggregates.ProgressAggregateDeps{
		Base:         aggregates.BaseDeps{DB: db, Log: log, Runner: h.runner, Hooks: h.hooks},
		Requirements: h.reqs,
		Progress:     h.progress,
		Members:      h.members,
		Clubs:        h.clubs,
		Badges:       badges,
		MemberBadges: memberBadges,
		Ledger:       ledger,
	})
	h.dispatcher = NewNotificationDispatcher(log, h.notifier, nil)
	participation := NewParticipationChecker(h.participants)

	h.resolver = NewRequirementResolver(db, log, h.reqs, h.progress, h.members, h.clubs, nil)
	h.workflow = NewProgressWorkflow(db, log, ProgressWorkflowDeps{
		Aggregate:     agg,
		Requirements:  h.reqs,
		Progress:      h.progress,
		Members:       h.members,
		Clubs:         h.clubs,
		Billing:       NewBillingChecker(log, h.clubs, 7*24*time.Hour),
		Participation: participation,
		Dispatcher:    h.dispatcher,
	})
	h.quiz = NewQuizService(db, log, QuizServiceDeps{
		Aggregate:     agg,
		Requirements:  h.reqs,
		Questions:     questions,
		Members:       h.members,
		Clubs:         h.clubs,
		Participation: participation,
		Dispatcher:    h.dispatcher,
	})
	h.curriculum = NewCurriculumService(db, log, h.reqs, badges, questions, h.progress, nil)
	h.rewards = NewRewardsService(db, log, h.members, h.clubs, ledger, memberBadges, badges)
	t.Cleanup(h.dispatcher.Wait)
	return h
}

func as(ctx context.Context, m *types.Member, club *types.Club) context.Context {
	p := &ctxutil.Principal{
		MemberID:  m.ID,
		Role:      m.Role,
		ClubID:    m.ClubID,
		UnitID:    m.UnitID,
		RankClass: m.RankClass,
	}
	if club != nil {
		p.Region = club.Region
		p.District = club.District
	}
	return ctxutil.WithPrincipal(ctx, p)
}

func reloadMember(t *testing.T, db *gorm.DB, id uuid.UUID) *types.Member {
	t.Helper()
	var m types.Member
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		t.Fatalf("reload member: %v", err)
	}
	return &m
}

func reloadProgress(t *testing.T, db *gorm.DB, memberID, requirementID uuid.UUID) *types.ProgressRecord {
	t.Helper()
	var rows []types.ProgressRecord
	if err := db.Where("member_id = ? AND requirement_id = ?", memberID, requirementID).Find(&rows).Error; err != nil {
		t.Fatalf("reload progress: %v", err)
	}
	if len(rows) == 0 {
		return nil
	}
	return &rows[0]
}
