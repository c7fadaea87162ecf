package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trailmark-backend/internal/data/repos"
	types "github.com/yungbote/trailmark-backend/internal/domain"
	domainagg "github.com/yungbote/trailmark-backend/internal/domain/aggregates"
	"github.com/yungbote/trailmark-backend/internal/domain/curriculum"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

type ResolveParams struct {
	RankClass string
	BadgeID   *uuid.UUID
	// MemberID defaults to the caller. Staff may resolve for members in their review scope.
	MemberID uuid.UUID
}

type ResolvedList struct {
	Member *types.Member
	Rows   []curriculum.Resolved
}

// RequirementResolver computes a member's effective requirement list.
type RequirementResolver interface {
	Resolve(ctx context.Context, p ResolveParams) (ResolvedList, error)
}

type requirementResolver struct {
	db       *gorm.DB
	log      *logger.Logger
	reqs     repos.RequirementRepo
	progress repos.ProgressRecordRepo
	members  repos.MemberRepo
	clubs    repos.ClubRepo
	keys     curriculum.OverrideKeyStrategy
}

func NewRequirementResolver(
	db *gorm.DB,
	log *logger.Logger,
	reqs repos.RequirementRepo,
	progress repos.ProgressRecordRepo,
	members repos.MemberRepo,
	clubs repos.ClubRepo,
	keys curriculum.OverrideKeyStrategy,
) RequirementResolver {
	if keys == nil {
		keys = curriculum.CodeOrDescriptionKey{}
	}
	return &requirementResolver{
		db:       db,
		log:      log.With("service", "RequirementResolver"),
		reqs:     reqs,
		progress: progress,
		members:  members,
		clubs:    clubs,
		keys:     keys,
	}
}

func (s *requirementResolver) Resolve(ctx context.Context, p ResolveParams) (ResolvedList, error) {
	const op = "Curriculum.Resolve"
	var out ResolvedList
	principal, err := requirePrincipal(ctx, op)
	if err != nil {
		return out, err
	}
	memberID := p.MemberID
	if memberID == uuid.Nil {
		memberID = principal.MemberID
	}

	dbc := dbctx.Background(ctx)
	member, err := s.members.GetByID(dbc, memberID)
	if err != nil {
		return out, err
	}
	if member == nil {
		return out, domainagg.NotFound(op, fmt.Sprintf("member not found: %s", memberID))
	}
	club, err := s.clubs.GetByID(dbc, member.ClubID)
	if err != nil {
		return out, err
	}
	if !canView(principal, member, club) {
		return out, domainagg.Unauthorized(op, "member is outside the caller's scope")
	}

	f := repos.VisibilityFilter{
		RankClass: strings.TrimSpace(p.RankClass),
		BadgeID:   p.BadgeID,
		ClubID:    member.ClubID,
	}
	if f.BadgeID != nil && *f.BadgeID == uuid.Nil {
		f.BadgeID = nil
	}
	if f.RankClass == "" && f.BadgeID == nil {
		f.RankClass = member.RankClass
	}
	if club != nil {
		f.Region = club.Region
		f.District = club.District
	}

	candidates, err := s.reqs.ListVisible(dbc, f)
	if err != nil {
		return out, err
	}
	ids := make([]uuid.UUID, 0, len(candidates))
	for _, r := range candidates {
		ids = append(ids, r.ID)
	}
	records, err := s.progress.ListByMemberRequirements(dbc, member.ID, ids)
	if err != nil {
		return out, err
	}
	byReq := make(map[uuid.UUID]*types.ProgressRecord, len(records))
	for _, r := range records {
		byReq[r.RequirementID] = r
	}

	out.Member = member
	out.Rows = curriculum.Resolve(candidates, byReq, s.keys)
	s.log.Debug("resolved requirements",
		"member_id", member.ID,
		"rank_class", f.RankClass,
		"candidates", len(candidates),
		"effective", len(out.Rows),
	)
	return out, nil
}
