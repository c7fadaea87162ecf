package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/trailmark-backend/internal/data/repos"
	types "github.com/yungbote/trailmark-backend/internal/domain"
	domainagg "github.com/yungbote/trailmark-backend/internal/domain/aggregates"
	domainclub "github.com/yungbote/trailmark-backend/internal/domain/club"
	"github.com/yungbote/trailmark-backend/internal/platform/ctxutil"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

// BillingChecker gates privileged writes on the club's subscription state.
type BillingChecker interface {
	CheckWriteAccess(ctx context.Context, clubID uuid.UUID) error
}

// ParticipationChecker reports whether a club joined a regional event.
type ParticipationChecker interface {
	IsParticipant(ctx context.Context, eventID, clubID uuid.UUID) (bool, error)
}

type clubBillingChecker struct {
	log   *logger.Logger
	clubs repos.ClubRepo
	grace time.Duration
	now   func() time.Time
}

// NewBillingChecker allows ACTIVE and TRIAL clubs. PAST_DUE and CANCELED clubs
// keep write access until PaidThrough plus the grace period.
func NewBillingChecker(log *logger.Logger, clubs repos.ClubRepo, grace time.Duration) BillingChecker {
	return &clubBillingChecker{
		log:   log.With("service", "BillingChecker"),
		clubs: clubs,
		grace: grace,
		now:   time.Now,
	}
}

func (c *clubBillingChecker) CheckWriteAccess(ctx context.Context, clubID uuid.UUID) error {
	const op = "Billing.CheckWriteAccess"
	club, err := c.clubs.GetByID(dbctx.Background(ctx), clubID)
	if err != nil {
		return err
	}
	if club == nil {
		return domainagg.NotFound(op, fmt.Sprintf("club not found: %s", clubID))
	}
	switch club.BillingStatus {
	case domainclub.BillingActive, domainclub.BillingTrial:
		return nil
	}
	if club.PaidThrough != nil && !c.now().UTC().After(club.PaidThrough.Add(c.grace)) {
		return nil
	}
	c.log.Info("write blocked by billing", "club_id", clubID, "billing_status", club.BillingStatus)
	return domainagg.Unauthorized(op, "club subscription is delinquent")
}

type eventParticipationChecker struct {
	participants repos.EventParticipantRepo
}

func NewParticipationChecker(participants repos.EventParticipantRepo) ParticipationChecker {
	return &eventParticipationChecker{participants: participants}
}

func (c *eventParticipationChecker) IsParticipant(ctx context.Context, eventID, clubID uuid.UUID) (bool, error) {
	return c.participants.Exists(dbctx.Background(ctx), eventID, clubID)
}

func requirePrincipal(ctx context.Context, op string) (*ctxutil.Principal, error) {
	p := ctxutil.GetPrincipal(ctx)
	if p == nil || p.MemberID == uuid.Nil {
		return nil, domainagg.Unauthorized(op, "missing principal")
	}
	return p, nil
}

// canView reports whether p may read member's progress.
func canView(p *ctxutil.Principal, member *types.Member, club *types.Club) bool {
	if p == nil || member == nil {
		return false
	}
	if p.MemberID == member.ID {
		return true
	}
	return inReviewScope(p, member, club)
}

func inReviewScope(p *ctxutil.Principal, member *types.Member, club *types.Club) bool {
	switch p.Role {
	case domainclub.RoleCounselor:
		return member.ClubID == p.ClubID && member.InUnit(p.UnitID)
	case domainclub.RoleInstructor, domainclub.RoleAdmin, domainclub.RoleOwner:
		return member.ClubID == p.ClubID
	case domainclub.RoleRegional:
		return club != nil && p.Region != "" && club.Region == p.Region
	case domainclub.RoleDistrict:
		return club != nil && p.District != "" && club.District == p.District
	}
	return false
}

// canReview reports whether p may approve or reject member's work on req.
// Regional and district reviewers only handle event-linked requirements.
func canReview(p *ctxutil.Principal, member *types.Member, club *types.Club, req *types.Requirement) bool {
	if p == nil || member == nil || req == nil {
		return false
	}
	if domainclub.IsHierarchyReviewer(p.Role) && !req.IsEventLinked() {
		return false
	}
	return inReviewScope(p, member, club)
}
