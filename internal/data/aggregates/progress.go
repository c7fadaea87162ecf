package aggregates

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/trailmark-backend/internal/data/repos"
	types "github.com/yungbote/trailmark-backend/internal/domain"
	domainagg "github.com/yungbote/trailmark-backend/internal/domain/aggregates"
	domainclub "github.com/yungbote/trailmark-backend/internal/domain/club"
	"github.com/yungbote/trailmark-backend/internal/domain/curriculum"
	domainprog "github.com/yungbote/trailmark-backend/internal/domain/progress"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
)

type ProgressAggregateDeps struct {
	Base BaseDeps

	Requirements repos.RequirementRepo
	Progress     repos.ProgressRecordRepo
	Members      repos.MemberRepo
	Clubs        repos.ClubRepo
	Badges       repos.BadgeRepo
	MemberBadges repos.MemberBadgeRepo
	Ledger       repos.PointsLedgerRepo

	// Keys decides which requirements override each other. Nil means code-or-description matching.
	Keys curriculum.OverrideKeyStrategy
}

type progressAggregate struct {
	deps ProgressAggregateDeps
}

func NewProgressAggregate(deps ProgressAggregateDeps) domainagg.ProgressAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.Keys == nil {
		deps.Keys = curriculum.CodeOrDescriptionKey{}
	}
	return &progressAggregate{deps: deps}
}

func (a *progressAggregate) Contract() domainagg.Contract {
	return domainagg.ProgressAggregateContract
}

func (a *progressAggregate) configured() bool {
	d := a.deps
	return d.Requirements != nil && d.Progress != nil && d.Members != nil && d.Clubs != nil &&
		d.Badges != nil && d.MemberBadges != nil && d.Ledger != nil
}

func (a *progressAggregate) Submit(ctx context.Context, in domainagg.SubmitProgressInput) (domainagg.SubmitProgressResult, error) {
	const op = "Curriculum.Progress.Submit"
	var out domainagg.SubmitProgressResult
	if in.MemberID == uuid.Nil {
		return out, domainagg.Validation(op, "missing member_id")
	}
	if in.RequirementID == uuid.Nil {
		return out, domainagg.Validation(op, "missing requirement_id")
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "progress aggregate repos not configured", nil)
	}
	submittedAt := in.SubmittedAt.UTC()
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		req, err := a.deps.Requirements.GetByID(dbc, in.RequirementID)
		if err != nil {
			return err
		}
		if req == nil {
			return domainagg.NotFound(op, fmt.Sprintf("requirement not found: %s", in.RequirementID))
		}
		if req.IsQuiz() {
			return ValidationError("quiz requirements are completed through the quiz")
		}
		member, err := a.deps.Members.GetByID(dbc, in.MemberID)
		if err != nil {
			return err
		}
		if member == nil {
			return domainagg.NotFound(op, fmt.Sprintf("member not found: %s", in.MemberID))
		}

		applied, err := a.deps.Progress.UpsertSubmission(dbc, &types.ProgressRecord{
			MemberID:      member.ID,
			RequirementID: req.ID,
			AnswerText:    in.AnswerText,
			FileRef:       in.FileRef,
			SubmittedAt:   &submittedAt,
		})
		if err != nil {
			return err
		}
		rec, err := a.deps.Progress.GetByMemberRequirement(dbc, member.ID, req.ID)
		if err != nil {
			return err
		}
		if rec == nil {
			return InvariantError("progress record missing after upsert")
		}
		out.Record = rec
		out.AlreadyApproved = !applied && rec.IsApproved()
		if !applied && !rec.IsApproved() {
			return InvariantError("submission was not applied")
		}
		return nil
	})
	return out, err
}

func (a *progressAggregate) Assign(ctx context.Context, in domainagg.AssignProgressInput) (domainagg.AssignProgressResult, error) {
	const op = "Curriculum.Progress.Assign"
	var out domainagg.AssignProgressResult
	if in.RequirementID == uuid.Nil {
		return out, domainagg.Validation(op, "missing requirement_id")
	}
	if !canAssign(in.AssignerRole) {
		return out, domainagg.Unauthorized(op, "role may not assign requirements")
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "progress aggregate repos not configured", nil)
	}
	ids := dedupeIDs(in.MemberIDs)
	if len(ids) == 0 {
		return out, nil
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		req, err := a.deps.Requirements.GetByID(dbc, in.RequirementID)
		if err != nil {
			return err
		}
		if req == nil {
			return domainagg.NotFound(op, fmt.Sprintf("requirement not found: %s", in.RequirementID))
		}
		members, err := a.deps.Members.GetByIDs(dbc, ids)
		if err != nil {
			return err
		}
		rows := make([]*types.ProgressRecord, 0, len(members))
		for _, m := range members {
			if !assignable(in, m) {
				continue
			}
			rows = append(rows, &types.ProgressRecord{
				MemberID:      m.ID,
				RequirementID: req.ID,
				Status:        domainprog.StatusPending,
			})
		}
		out.Targeted = len(rows)
		created, err := a.deps.Progress.InsertMissing(dbc, rows)
		if err != nil {
			return err
		}
		out.Created = int(created)
		return nil
	})
	return out, err
}

func canAssign(role string) bool {
	switch role {
	case domainclub.RoleCounselor, domainclub.RoleInstructor, domainclub.RoleAdmin, domainclub.RoleOwner:
		return true
	}
	return false
}

func assignable(in domainagg.AssignProgressInput, m *types.Member) bool {
	if m == nil {
		return false
	}
	if in.AssignerRole != domainclub.RoleCounselor {
		return true
	}
	return m.ClubID == in.AssignerClubID && m.InUnit(in.AssignerUnitID)
}

func (a *progressAggregate) Approve(ctx context.Context, in domainagg.ApproveProgressInput) (domainagg.ApproveProgressResult, error) {
	const op = "Curriculum.Progress.Approve"
	var out domainagg.ApproveProgressResult
	if in.ProgressID == uuid.Nil {
		return out, domainagg.Validation(op, "missing progress_id")
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "progress aggregate repos not configured", nil)
	}
	approvedAt := in.ApprovedAt.UTC()
	if approvedAt.IsZero() {
		approvedAt = time.Now().UTC()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		rec, err := a.deps.Progress.GetByID(dbc, in.ProgressID)
		if err != nil {
			return err
		}
		if rec == nil {
			return domainagg.NotFound(op, fmt.Sprintf("progress record not found: %s", in.ProgressID))
		}
		// Every cascade for this member serializes on the member row.
		member, err := a.deps.Members.LockByID(dbc, rec.MemberID)
		if err != nil {
			return err
		}
		if member == nil {
			return domainagg.NotFound(op, fmt.Sprintf("member not found: %s", rec.MemberID))
		}
		req, err := a.deps.Requirements.GetByID(dbc, rec.RequirementID)
		if err != nil {
			return err
		}
		if req == nil {
			return domainagg.NotFound(op, fmt.Sprintf("requirement not found: %s", rec.RequirementID))
		}

		updates := map[string]any{
			"status":         domainprog.StatusApproved,
			"completed_at":   approvedAt,
			"review_comment": nil,
			"updated_at":     time.Now().UTC(),
		}
		if in.ApproverID != uuid.Nil {
			updates["approved_by"] = in.ApproverID
		}
		ok, err := a.deps.Base.Transitions.Move(dbc, rec.ID,
			[]string{domainprog.StatusPending, domainprog.StatusRejected}, updates)
		if err != nil {
			return err
		}
		if !ok {
			// Re-approval is allowed and only re-derives rewards.
			current, err := a.deps.Progress.GetByID(dbc, rec.ID)
			if err != nil {
				return err
			}
			if current == nil {
				return domainagg.NotFound(op, fmt.Sprintf("progress record not found: %s", rec.ID))
			}
			if err := RequireStatus(current.Status, domainprog.StatusApproved); err != nil {
				return err
			}
		} else {
			out.Notifications = append(out.Notifications, domainprog.Notification{
				MemberID: member.ID,
				Title:    "Requirement approved",
				Message:  fmt.Sprintf("Your work on %q was approved.", req.Description),
				Severity: domainprog.SeveritySuccess,
			})
		}

		cascade, err := a.runCascade(dbc, member, req, cascadeActor{Role: in.ApproverRole}, approvedAt)
		if err != nil {
			return err
		}
		cascade.apply(&out)

		fresh, err := a.deps.Progress.GetByID(dbc, rec.ID)
		if err != nil {
			return err
		}
		out.Record = fresh
		return nil
	})
	if err != nil {
		return domainagg.ApproveProgressResult{}, err
	}
	return out, nil
}

func (a *progressAggregate) CompleteByQuiz(ctx context.Context, in domainagg.CompleteByQuizInput) (domainagg.ApproveProgressResult, error) {
	const op = "Curriculum.Progress.CompleteByQuiz"
	var out domainagg.ApproveProgressResult
	if in.MemberID == uuid.Nil {
		return out, domainagg.Validation(op, "missing member_id")
	}
	if in.RequirementID == uuid.Nil {
		return out, domainagg.Validation(op, "missing requirement_id")
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "progress aggregate repos not configured", nil)
	}
	completedAt := in.CompletedAt.UTC()
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		member, err := a.deps.Members.LockByID(dbc, in.MemberID)
		if err != nil {
			return err
		}
		if member == nil {
			return domainagg.NotFound(op, fmt.Sprintf("member not found: %s", in.MemberID))
		}
		req, err := a.deps.Requirements.GetByID(dbc, in.RequirementID)
		if err != nil {
			return err
		}
		if req == nil {
			return domainagg.NotFound(op, fmt.Sprintf("requirement not found: %s", in.RequirementID))
		}
		if !req.IsQuiz() {
			return ValidationError("requirement is not a quiz")
		}

		prior, err := a.deps.Progress.GetByMemberRequirement(dbc, member.ID, req.ID)
		if err != nil {
			return err
		}
		if err := a.deps.Progress.UpsertApproved(dbc, &types.ProgressRecord{
			MemberID:      member.ID,
			RequirementID: req.ID,
			CompletedAt:   &completedAt,
		}); err != nil {
			return err
		}
		if !prior.IsApproved() {
			out.Notifications = append(out.Notifications, domainprog.Notification{
				MemberID: member.ID,
				Title:    "Quiz passed",
				Message:  fmt.Sprintf("You passed the quiz for %q.", req.Description),
				Severity: domainprog.SeveritySuccess,
			})
		}

		cascade, err := a.runCascade(dbc, member, req, cascadeActor{System: true}, completedAt)
		if err != nil {
			return err
		}
		cascade.apply(&out)

		rec, err := a.deps.Progress.GetByMemberRequirement(dbc, member.ID, req.ID)
		if err != nil {
			return err
		}
		out.Record = rec
		return nil
	})
	if err != nil {
		return domainagg.ApproveProgressResult{}, err
	}
	return out, nil
}

func (a *progressAggregate) Reject(ctx context.Context, in domainagg.RejectProgressInput) (domainagg.RejectProgressResult, error) {
	const op = "Curriculum.Progress.Reject"
	var out domainagg.RejectProgressResult
	if in.ProgressID == uuid.Nil {
		return out, domainagg.Validation(op, "missing progress_id")
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "progress aggregate repos not configured", nil)
	}
	rejectedAt := in.RejectedAt.UTC()
	if rejectedAt.IsZero() {
		rejectedAt = time.Now().UTC()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		rec, err := a.deps.Progress.GetByID(dbc, in.ProgressID)
		if err != nil {
			return err
		}
		if rec == nil {
			return domainagg.NotFound(op, fmt.Sprintf("progress record not found: %s", in.ProgressID))
		}
		ok, err := a.deps.Base.Transitions.Move(dbc, rec.ID,
			[]string{domainprog.StatusPending, domainprog.StatusRejected},
			map[string]any{
				"status":         domainprog.StatusRejected,
				"review_comment": in.Comment,
				"completed_at":   rejectedAt,
				"updated_at":     time.Now().UTC(),
			})
		if err != nil {
			return err
		}
		if err := RequireMoved(ok, rec.Status, domainprog.StatusRejected); err != nil {
			return err
		}
		fresh, err := a.deps.Progress.GetByID(dbc, rec.ID)
		if err != nil {
			return err
		}
		out.Record = fresh

		title := "Requirement needs another try"
		msg := "A reviewer asked you to resubmit your work."
		if in.Comment != nil && *in.Comment != "" {
			msg = fmt.Sprintf("A reviewer asked you to resubmit: %s", *in.Comment)
		}
		out.Notifications = append(out.Notifications, domainprog.Notification{
			MemberID: rec.MemberID,
			Title:    title,
			Message:  msg,
			Severity: domainprog.SeverityWarning,
		})
		return nil
	})
	return out, err
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
