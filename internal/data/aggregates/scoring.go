package aggregates

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/trailmark-backend/internal/data/repos"
	types "github.com/yungbote/trailmark-backend/internal/domain"
	domainagg "github.com/yungbote/trailmark-backend/internal/domain/aggregates"
	domainclub "github.com/yungbote/trailmark-backend/internal/domain/club"
	"github.com/yungbote/trailmark-backend/internal/domain/curriculum"
	domainprog "github.com/yungbote/trailmark-backend/internal/domain/progress"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
)

// cascadeActor is who triggered the cascade. System is the quiz path.
type cascadeActor struct {
	Role   string
	System bool
}

func (c cascadeActor) canCompleteBadge() bool {
	return c.System || domainclub.CanCompleteBadge(c.Role)
}

type cascadeResult struct {
	milestones     []domainagg.MilestoneAward
	badgeCompleted bool
	points         int
	notifications  []domainprog.Notification
}

func (c cascadeResult) apply(out *domainagg.ApproveProgressResult) {
	out.Milestones = append(out.Milestones, c.milestones...)
	out.BadgeCompleted = c.badgeCompleted
	out.PointsAwarded += c.points
	out.Notifications = append(out.Notifications, c.notifications...)
}

// runCascade re-derives milestone and badge state from rows read inside dbc.
// member must already be locked by the caller.
func (a *progressAggregate) runCascade(dbc dbctx.Context, member *types.Member, req *types.Requirement, actor cascadeActor, at time.Time) (cascadeResult, error) {
	var res cascadeResult
	club, err := a.deps.Clubs.GetByID(dbc, member.ClubID)
	if err != nil {
		return res, err
	}
	filter := repos.VisibilityFilter{ClubID: member.ClubID}
	if club != nil {
		filter.Region = club.Region
		filter.District = club.District
	}

	if req.RankClass != "" && req.RankClass == member.RankClass {
		f := filter
		f.RankClass = member.RankClass
		if err := a.awardMilestones(dbc, member, f, req, &res); err != nil {
			return res, err
		}
	}
	if req.BadgeID != nil && *req.BadgeID != uuid.Nil {
		f := filter
		f.BadgeID = req.BadgeID
		if err := a.evaluateBadge(dbc, member, f, *req.BadgeID, actor, at, &res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (a *progressAggregate) effective(dbc dbctx.Context, memberID uuid.UUID, f repos.VisibilityFilter) ([]curriculum.Resolved, error) {
	candidates, err := a.deps.Requirements.ListVisible(dbc, f)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(candidates))
	for _, r := range candidates {
		ids = append(ids, r.ID)
	}
	records, err := a.deps.Progress.ListByMemberRequirements(dbc, memberID, ids)
	if err != nil {
		return nil, err
	}
	byReq := make(map[uuid.UUID]*types.ProgressRecord, len(records))
	for _, p := range records {
		byReq[p.RequirementID] = p
	}
	return curriculum.Resolve(candidates, byReq, a.deps.Keys), nil
}

func (a *progressAggregate) awardMilestones(dbc dbctx.Context, member *types.Member, f repos.VisibilityFilter, req *types.Requirement, res *cascadeResult) error {
	rows, err := a.effective(dbc, member.ID, f)
	if err != nil {
		return err
	}
	approved, total := curriculum.CountApproved(rows)
	percent := domainprog.Percent(approved, total)
	crossed := domainprog.CrossedMilestones(percent, member.LastMilestone)
	if len(crossed) == 0 {
		return nil
	}

	entries := make([]*types.PointsLedgerEntry, 0, len(crossed))
	sum := 0
	for _, m := range crossed {
		sum += m.Points
		reqID := req.ID
		entries = append(entries, &types.PointsLedgerEntry{
			MemberID:      member.ID,
			Amount:        m.Points,
			Reason:        fmt.Sprintf("Reached %d%% of %s (%d%% complete)", m.Threshold, member.RankClass, percent),
			Source:        domainprog.SourceMilestone,
			RequirementID: &reqID,
			Metadata:      ledgerMetadata(map[string]any{"threshold": m.Threshold, "percent": percent, "rank_class": member.RankClass}),
		})
		res.milestones = append(res.milestones, domainagg.MilestoneAward{Threshold: m.Threshold, Points: m.Points, Percent: percent})
	}
	if _, err := a.deps.Ledger.Append(dbc, entries); err != nil {
		return err
	}
	top := crossed[len(crossed)-1].Threshold
	if err := a.deps.Members.AddPoints(dbc, member.ID, sum, &top); err != nil {
		return err
	}
	member.Points += sum
	member.LastMilestone = top
	res.points += sum

	title := fmt.Sprintf("%d%% milestone reached", top)
	if top == 100 {
		title = fmt.Sprintf("%s complete", member.RankClass)
	}
	res.notifications = append(res.notifications, domainprog.Notification{
		MemberID: member.ID,
		Title:    title,
		Message:  fmt.Sprintf("You earned %d points for reaching %d%% of %s.", sum, top, member.RankClass),
		Severity: domainprog.SeveritySuccess,
	})
	return nil
}

func (a *progressAggregate) evaluateBadge(dbc dbctx.Context, member *types.Member, f repos.VisibilityFilter, badgeID uuid.UUID, actor cascadeActor, at time.Time, res *cascadeResult) error {
	rows, err := a.effective(dbc, member.ID, f)
	if err != nil {
		return err
	}
	approved, total := curriculum.CountApproved(rows)
	if total == 0 || approved < total || !actor.canCompleteBadge() {
		return a.deps.MemberBadges.EnsureInProgress(dbc, member.ID, badgeID)
	}

	completed, err := a.deps.MemberBadges.MarkCompleted(dbc, member.ID, badgeID, at)
	if err != nil {
		return err
	}
	if !completed {
		return nil
	}

	name := "badge"
	if b, err := a.deps.Badges.GetByID(dbc, badgeID); err != nil {
		return err
	} else if b != nil {
		name = b.Name
	}
	bid := badgeID
	if _, err := a.deps.Ledger.Append(dbc, []*types.PointsLedgerEntry{{
		MemberID: member.ID,
		Amount:   domainprog.BadgeCompletionPoints,
		Reason:   fmt.Sprintf("Completed %s", name),
		Source:   domainprog.SourceBadge,
		BadgeID:  &bid,
		Metadata: ledgerMetadata(map[string]any{"badge_id": badgeID.String(), "requirements": total}),
	}}); err != nil {
		return err
	}
	if err := a.deps.Members.AddPoints(dbc, member.ID, domainprog.BadgeCompletionPoints, nil); err != nil {
		return err
	}
	member.Points += domainprog.BadgeCompletionPoints
	res.points += domainprog.BadgeCompletionPoints
	res.badgeCompleted = true
	res.notifications = append(res.notifications, domainprog.Notification{
		MemberID: member.ID,
		Title:    "Badge completed",
		Message:  fmt.Sprintf("You completed %s and earned %d points.", name, domainprog.BadgeCompletionPoints),
		Severity: domainprog.SeveritySuccess,
	})
	return nil
}

func ledgerMetadata(m map[string]any) datatypes.JSON {
	b, err := json.Marshal(m)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(b)
}
