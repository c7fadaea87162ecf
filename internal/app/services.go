package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/trailmark-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/trailmark-backend/internal/domain/aggregates"
	"github.com/yungbote/trailmark-backend/internal/observability"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
	"github.com/yungbote/trailmark-backend/internal/services"
)

type Services struct {
	Aggregate  domainagg.ProgressAggregate
	Dispatcher *services.NotificationDispatcher

	Tokens     services.TokenService
	Resolver   services.RequirementResolver
	Workflow   services.ProgressWorkflow
	Quiz       services.QuizService
	Curriculum services.CurriculumService
	Rewards    services.RewardsService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, notifier services.Notifier, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	agg := aggregates.NewProgressAggregate(aggregates.ProgressAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:    db,
			Log:   log,
			Hooks: aggregates.NewObservabilityHooks(metrics),
		},
		Requirements: r.Requirement,
		Progress:     r.ProgressRecord,
		Members:      r.Member,
		Clubs:        r.Club,
		Badges:       r.Badge,
		MemberBadges: r.MemberBadge,
		Ledger:       r.PointsLedger,
	})
	dispatcher := services.NewNotificationDispatcher(log, notifier, metrics)
	participation := services.NewParticipationChecker(r.EventParticipant)

	return Services{
		Aggregate:  agg,
		Dispatcher: dispatcher,
		Tokens:     services.NewTokenService(log, cfg.JWTSecretKey),
		Resolver:   services.NewRequirementResolver(db, log, r.Requirement, r.ProgressRecord, r.Member, r.Club, nil),
		Workflow: services.NewProgressWorkflow(db, log, services.ProgressWorkflowDeps{
			Aggregate:     agg,
			Requirements:  r.Requirement,
			Progress:      r.ProgressRecord,
			Members:       r.Member,
			Clubs:         r.Club,
			Billing:       services.NewBillingChecker(log, r.Club, cfg.BillingGrace),
			Participation: participation,
			Dispatcher:    dispatcher,
			Metrics:       metrics,
		}),
		Quiz: services.NewQuizService(db, log, services.QuizServiceDeps{
			Aggregate:     agg,
			Requirements:  r.Requirement,
			Questions:     r.QuizQuestion,
			Members:       r.Member,
			Clubs:         r.Club,
			Participation: participation,
			Dispatcher:    dispatcher,
			Metrics:       metrics,
			SampleSize:    cfg.QuizSampleSize,
		}),
		Curriculum: services.NewCurriculumService(db, log, r.Requirement, r.Badge, r.QuizQuestion, r.ProgressRecord, nil),
		Rewards:    services.NewRewardsService(db, log, r.Member, r.Club, r.PointsLedger, r.MemberBadge, r.Badge),
	}
}
