package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trailmark-backend/internal/data/repos"
	types "github.com/yungbote/trailmark-backend/internal/domain"
	domainagg "github.com/yungbote/trailmark-backend/internal/domain/aggregates"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

type PointsSummary struct {
	MemberID      uuid.UUID                  `json:"member_id"`
	Points        int                        `json:"points"`
	LastMilestone int                        `json:"last_milestone"`
	Entries       []*types.PointsLedgerEntry `json:"entries"`
}

type MemberBadgeView struct {
	BadgeID   uuid.UUID  `json:"badge_id"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	AwardedAt *time.Time `json:"awarded_at,omitempty"`
}

// RewardsService exposes read views over points and badges.
type RewardsService interface {
	Points(ctx context.Context, memberID uuid.UUID, limit int) (PointsSummary, error)
	Badges(ctx context.Context, memberID uuid.UUID) ([]MemberBadgeView, error)
}

type rewardsService struct {
	db           *gorm.DB
	log          *logger.Logger
	members      repos.MemberRepo
	clubs        repos.ClubRepo
	ledger       repos.PointsLedgerRepo
	memberBadges repos.MemberBadgeRepo
	badges       repos.BadgeRepo
}

func NewRewardsService(
	db *gorm.DB,
	log *logger.Logger,
	members repos.MemberRepo,
	clubs repos.ClubRepo,
	ledger repos.PointsLedgerRepo,
	memberBadges repos.MemberBadgeRepo,
	badges repos.BadgeRepo,
) RewardsService {
	return &rewardsService{
		db:           db,
		log:          log.With("service", "RewardsService"),
		members:      members,
		clubs:        clubs,
		ledger:       ledger,
		memberBadges: memberBadges,
		badges:       badges,
	}
}

func (s *rewardsService) visibleMember(ctx context.Context, op string, memberID uuid.UUID) (*types.Member, error) {
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return nil, err
	}
	if memberID == uuid.Nil {
		memberID = p.MemberID
	}
	dbc := dbctx.Background(ctx)
	m, err := s.members.GetByID(dbc, memberID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domainagg.NotFound(op, fmt.Sprintf("member not found: %s", memberID))
	}
	club, err := s.clubs.GetByID(dbc, m.ClubID)
	if err != nil {
		return nil, err
	}
	if !canView(p, m, club) {
		return nil, domainagg.Unauthorized(op, "member is outside the caller's scope")
	}
	return m, nil
}

func (s *rewardsService) Points(ctx context.Context, memberID uuid.UUID, limit int) (PointsSummary, error) {
	const op = "Rewards.Points"
	var out PointsSummary
	m, err := s.visibleMember(ctx, op, memberID)
	if err != nil {
		return out, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	entries, err := s.ledger.ListByMember(dbctx.Background(ctx), m.ID, limit)
	if err != nil {
		return out, err
	}
	out.MemberID = m.ID
	out.Points = m.Points
	out.LastMilestone = m.LastMilestone
	out.Entries = entries
	return out, nil
}

func (s *rewardsService) Badges(ctx context.Context, memberID uuid.UUID) ([]MemberBadgeView, error) {
	const op = "Rewards.Badges"
	m, err := s.visibleMember(ctx, op, memberID)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Background(ctx)
	rows, err := s.memberBadges.ListByMember(dbc, m.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.BadgeID)
	}
	badges, err := s.badges.GetByIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(badges))
	for _, b := range badges {
		names[b.ID] = b.Name
	}
	out := make([]MemberBadgeView, 0, len(rows))
	for _, r := range rows {
		out = append(out, MemberBadgeView{
			BadgeID:   r.BadgeID,
			Name:      names[r.BadgeID],
			Status:    r.Status,
			AwardedAt: r.AwardedAt,
		})
	}
	return out, nil
}
