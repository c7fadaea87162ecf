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
	domainclub "github.com/yungbote/trailmark-backend/internal/domain/club"
	domainprog "github.com/yungbote/trailmark-backend/internal/domain/progress"
	"github.com/yungbote/trailmark-backend/internal/observability"
	"github.com/yungbote/trailmark-backend/internal/platform/ctxutil"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

type SubmitInput struct {
	RequirementID uuid.UUID `validate:"required"`
	AnswerText    *string   `validate:"omitempty,max=10000"`
	FileRef       *string   `validate:"omitempty,max=1024"`
}

type SubmitResult struct {
	Record          *types.ProgressRecord
	AlreadyApproved bool
}

type AssignInput struct {
	RequirementID uuid.UUID   `validate:"required"`
	MemberIDs     []uuid.UUID `validate:"required,min=1,max=500"`
}

type AssignResult struct {
	Count   int    `json:"count"`
	Message string `json:"message"`
}

type RejectInput struct {
	ProgressID uuid.UUID `validate:"required"`
	Comment    *string   `validate:"omitempty,max=2000"`
}

// ProgressWorkflow runs the submission and review workflow for the caller in ctx.
type ProgressWorkflow interface {
	Submit(ctx context.Context, in SubmitInput) (SubmitResult, error)
	Assign(ctx context.Context, in AssignInput) (AssignResult, error)
	Approve(ctx context.Context, progressID uuid.UUID) (domainagg.ApproveProgressResult, error)
	Reject(ctx context.Context, in RejectInput) (*types.ProgressRecord, error)
	ListPending(ctx context.Context, limit int) ([]*types.ProgressRecord, error)
}

type progressWorkflow struct {
	db  *gorm.DB
	log *logger.Logger

	agg          domainagg.ProgressAggregate
	reqs         repos.RequirementRepo
	progress     repos.ProgressRecordRepo
	members      repos.MemberRepo
	clubs        repos.ClubRepo
	billing      BillingChecker
	participants ParticipationChecker
	dispatcher   *NotificationDispatcher
	metrics      *observability.Metrics
}

type ProgressWorkflowDeps struct {
	Aggregate     domainagg.ProgressAggregate
	Requirements  repos.RequirementRepo
	Progress      repos.ProgressRecordRepo
	Members       repos.MemberRepo
	Clubs         repos.ClubRepo
	Billing       BillingChecker
	Participation ParticipationChecker
	Dispatcher    *NotificationDispatcher
	Metrics       *observability.Metrics
}

func NewProgressWorkflow(db *gorm.DB, log *logger.Logger, deps ProgressWorkflowDeps) ProgressWorkflow {
	return &progressWorkflow{
		db:           db,
		log:          log.With("service", "ProgressWorkflow"),
		agg:          deps.Aggregate,
		reqs:         deps.Requirements,
		progress:     deps.Progress,
		members:      deps.Members,
		clubs:        deps.Clubs,
		billing:      deps.Billing,
		participants: deps.Participation,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
	}
}

func (s *progressWorkflow) Submit(ctx context.Context, in SubmitInput) (SubmitResult, error) {
	const op = "Curriculum.Workflow.Submit"
	var out SubmitResult
	principal, err := requirePrincipal(ctx, op)
	if err != nil {
		return out, err
	}
	if err := validateInput(op, in); err != nil {
		return out, err
	}

	dbc := dbctx.Background(ctx)
	req, err := s.reqs.GetByID(dbc, in.RequirementID)
	if err != nil {
		return out, err
	}
	if req == nil {
		return out, domainagg.NotFound(op, fmt.Sprintf("requirement not found: %s", in.RequirementID))
	}
	member, club, err := s.memberWithClub(dbc, op, principal.MemberID)
	if err != nil {
		return out, err
	}
	if err := checkHierarchy(op, req, member, club); err != nil {
		return out, err
	}
	if err := checkParticipation(ctx, op, s.participants, req, member); err != nil {
		return out, err
	}

	res, err := s.agg.Submit(ctx, domainagg.SubmitProgressInput{
		MemberID:      member.ID,
		RequirementID: req.ID,
		AnswerText:    in.AnswerText,
		FileRef:       in.FileRef,
		SubmittedAt:   time.Now().UTC(),
	})
	if err != nil {
		return out, err
	}
	out.Record = res.Record
	out.AlreadyApproved = res.AlreadyApproved
	if res.AlreadyApproved {
		return out, nil
	}

	recipients, err := s.reviewers(dbc, member, club, req)
	if err != nil {
		// The submission is committed; a lookup failure only loses the heads-up.
		s.log.Warn("reviewer lookup failed", "member_id", member.ID, "requirement_id", req.ID, "error", err)
		return out, nil
	}
	notes := make([]domainprog.Notification, 0, len(recipients))
	for _, r := range recipients {
		notes = append(notes, domainprog.Notification{
			MemberID: r.ID,
			Title:    "New submission to review",
			Message:  fmt.Sprintf("%s submitted \"%s\".", member.Name, req.Description),
			Severity: domainprog.SeverityInfo,
		})
	}
	s.dispatcher.Dispatch(ctx, notes)
	return out, nil
}

// reviewers picks who hears about a new submission. Event-linked work goes to
// the regional and district reviewers of the member's club; everything else
// goes to the unit's counselors and the club's instructors and admins.
func (s *progressWorkflow) reviewers(dbc dbctx.Context, member *types.Member, club *types.Club, req *types.Requirement) ([]*types.Member, error) {
	var (
		out []*types.Member
		err error
	)
	if req.IsEventLinked() {
		if club == nil {
			return nil, nil
		}
		out, err = s.members.ListHierarchyReviewers(dbc, club.Region, club.District)
		if err != nil {
			return nil, err
		}
	} else {
		if member.UnitID != nil {
			unit, err := s.members.ListUnitStaff(dbc, member.ClubID, *member.UnitID, []string{domainclub.RoleCounselor})
			if err != nil {
				return nil, err
			}
			out = append(out, unit...)
		}
		staff, err := s.members.ListClubStaff(dbc, member.ClubID, []string{
			domainclub.RoleInstructor, domainclub.RoleAdmin, domainclub.RoleOwner,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, staff...)
	}

	seen := map[uuid.UUID]bool{member.ID: true}
	uniq := out[:0]
	for _, m := range out {
		if m == nil || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		uniq = append(uniq, m)
	}
	return uniq, nil
}

func (s *progressWorkflow) Assign(ctx context.Context, in AssignInput) (AssignResult, error) {
	const op = "Curriculum.Workflow.Assign"
	var out AssignResult
	principal, err := requirePrincipal(ctx, op)
	if err != nil {
		return out, err
	}
	if err := validateInput(op, in); err != nil {
		return out, err
	}
	res, err := s.agg.Assign(ctx, domainagg.AssignProgressInput{
		RequirementID:  in.RequirementID,
		MemberIDs:      in.MemberIDs,
		AssignerID:     principal.MemberID,
		AssignerRole:   principal.Role,
		AssignerClubID: principal.ClubID,
		AssignerUnitID: principal.UnitID,
	})
	if err != nil {
		return out, err
	}
	out.Count = res.Created
	switch {
	case res.Targeted == 0:
		out.Message = "No eligible members to assign"
	case res.Created == 0:
		out.Message = "All selected members already have this requirement"
	default:
		out.Message = fmt.Sprintf("Requirement assigned to %d member(s)", res.Created)
	}
	s.log.Info("requirement assigned",
		"requirement_id", in.RequirementID,
		"assigner_id", principal.MemberID,
		"requested", len(in.MemberIDs),
		"targeted", res.Targeted,
		"created", res.Created,
	)
	return out, nil
}

func (s *progressWorkflow) Approve(ctx context.Context, progressID uuid.UUID) (domainagg.ApproveProgressResult, error) {
	const op = "Curriculum.Workflow.Approve"
	var out domainagg.ApproveProgressResult
	principal, err := requirePrincipal(ctx, op)
	if err != nil {
		return out, err
	}
	_, member, _, err := s.authorizeReview(ctx, op, principal, progressID)
	if err != nil {
		return out, err
	}
	if err := s.billing.CheckWriteAccess(ctx, member.ClubID); err != nil {
		return out, err
	}

	out, err = s.agg.Approve(ctx, domainagg.ApproveProgressInput{
		ProgressID:   progressID,
		ApproverID:   principal.MemberID,
		ApproverRole: principal.Role,
		ApprovedAt:   time.Now().UTC(),
	})
	if err != nil {
		return out, err
	}
	recordRewards(s.metrics, out)
	s.dispatcher.Dispatch(ctx, out.Notifications)
	return out, nil
}

func (s *progressWorkflow) Reject(ctx context.Context, in RejectInput) (*types.ProgressRecord, error) {
	const op = "Curriculum.Workflow.Reject"
	principal, err := requirePrincipal(ctx, op)
	if err != nil {
		return nil, err
	}
	if err := validateInput(op, in); err != nil {
		return nil, err
	}
	if _, _, _, err := s.authorizeReview(ctx, op, principal, in.ProgressID); err != nil {
		return nil, err
	}
	res, err := s.agg.Reject(ctx, domainagg.RejectProgressInput{
		ProgressID: in.ProgressID,
		Comment:    in.Comment,
		RejectedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	s.dispatcher.Dispatch(ctx, res.Notifications)
	return res.Record, nil
}

// authorizeReview loads the record's member, club and requirement and checks
// that the principal may review it.
func (s *progressWorkflow) authorizeReview(ctx context.Context, op string, p *ctxutil.Principal, progressID uuid.UUID) (*types.Requirement, *types.Member, *types.Club, error) {
	if progressID == uuid.Nil {
		return nil, nil, nil, domainagg.Validation(op, "missing progress id")
	}
	dbc := dbctx.Background(ctx)
	rec, err := s.progress.GetByID(dbc, progressID)
	if err != nil {
		return nil, nil, nil, err
	}
	if rec == nil {
		return nil, nil, nil, domainagg.NotFound(op, fmt.Sprintf("progress record not found: %s", progressID))
	}
	req, err := s.reqs.GetByID(dbc, rec.RequirementID)
	if err != nil {
		return nil, nil, nil, err
	}
	if req == nil {
		return nil, nil, nil, domainagg.NotFound(op, fmt.Sprintf("requirement not found: %s", rec.RequirementID))
	}
	member, club, err := s.memberWithClub(dbc, op, rec.MemberID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !canReview(p, member, club, req) {
		return nil, nil, nil, domainagg.Unauthorized(op, "caller may not review this member's work")
	}
	return req, member, club, nil
}

func (s *progressWorkflow) memberWithClub(dbc dbctx.Context, op string, memberID uuid.UUID) (*types.Member, *types.Club, error) {
	member, err := s.members.GetByID(dbc, memberID)
	if err != nil {
		return nil, nil, err
	}
	if member == nil {
		return nil, nil, domainagg.NotFound(op, fmt.Sprintf("member not found: %s", memberID))
	}
	club, err := s.clubs.GetByID(dbc, member.ClubID)
	if err != nil {
		return nil, nil, err
	}
	return member, club, nil
}

// ListPending returns the review queue visible to the caller.
func (s *progressWorkflow) ListPending(ctx context.Context, limit int) ([]*types.ProgressRecord, error) {
	const op = "Curriculum.Workflow.ListPending"
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	f := repos.PendingFilter{Limit: limit}
	switch p.Role {
	case domainclub.RoleCounselor:
		if p.UnitID == nil {
			return []*types.ProgressRecord{}, nil
		}
		f.ClubID = &p.ClubID
		f.UnitID = p.UnitID
	case domainclub.RoleInstructor, domainclub.RoleAdmin, domainclub.RoleOwner:
		f.ClubID = &p.ClubID
	case domainclub.RoleRegional:
		if p.Region == "" {
			return []*types.ProgressRecord{}, nil
		}
		f.Region = p.Region
		f.EventLinkedOnly = true
	case domainclub.RoleDistrict:
		if p.District == "" {
			return []*types.ProgressRecord{}, nil
		}
		f.District = p.District
		f.EventLinkedOnly = true
	default:
		return nil, domainagg.Unauthorized(op, "role has no review queue")
	}
	return s.progress.ListPending(dbctx.Background(ctx), f)
}

func hierarchyFilter(member *types.Member, club *types.Club) repos.VisibilityFilter {
	f := repos.VisibilityFilter{ClubID: member.ClubID}
	if club != nil {
		f.Region = club.Region
		f.District = club.District
	}
	return f
}

// checkHierarchy rejects work on requirements scoped to another club, region
// or district than the member's own.
func checkHierarchy(op string, req *types.Requirement, member *types.Member, club *types.Club) error {
	if !hierarchyFilter(member, club).InScope(req) {
		return domainagg.Unauthorized(op, "requirement is outside the member's club hierarchy")
	}
	return nil
}

func checkParticipation(ctx context.Context, op string, pc ParticipationChecker, req *types.Requirement, member *types.Member) error {
	if !req.IsEventLinked() {
		return nil
	}
	if pc == nil {
		return domainagg.Unauthorized(op, "event participation cannot be verified")
	}
	ok, err := pc.IsParticipant(ctx, *req.EventID, member.ClubID)
	if err != nil {
		return err
	}
	if !ok {
		return domainagg.Unauthorized(op, "club is not registered for this event")
	}
	return nil
}

func recordRewards(m *observability.Metrics, res domainagg.ApproveProgressResult) {
	for _, ms := range res.Milestones {
		m.IncMilestone(fmt.Sprintf("%d", ms.Threshold))
		m.AddPoints(domainprog.SourceMilestone, ms.Points)
	}
	if res.BadgeCompleted {
		m.IncBadgeCompleted()
		m.AddPoints(domainprog.SourceBadge, domainprog.BadgeCompletionPoints)
	}
}
