package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/trailmark-backend/internal/domain/progress"
)

var ProgressAggregateContract = Contract{
	Name:             "Curriculum.ProgressAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes: "Owns the member-requirement state machine and the scoring cascade. Approval, " +
		"milestone watermark, badge completion and points ledger writes commit together.",
}

// ProgressAggregate owns progress record transitions and their reward side effects.
//
// Failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeUnauthorized, CodeConflict, CodeRetryable, CodeInternal.
type ProgressAggregate interface {
	Aggregate

	// Submit upserts the member's record to PENDING with the supplied answer.
	Submit(ctx context.Context, in SubmitProgressInput) (SubmitProgressResult, error)

	// Assign creates PENDING records for members that have none. Existing rows are
	// left alone. Counselors may only target members of their own unit; other ids
	// are dropped rather than failing the batch.
	Assign(ctx context.Context, in AssignProgressInput) (AssignProgressResult, error)

	// Approve marks a record APPROVED and runs the scoring cascade in the same transaction.
	Approve(ctx context.Context, in ApproveProgressInput) (ApproveProgressResult, error)

	// Reject marks a record REJECTED. Approved records cannot be rejected.
	Reject(ctx context.Context, in RejectProgressInput) (RejectProgressResult, error)

	// CompleteByQuiz upserts an APPROVED record for a passed quiz and runs the cascade.
	CompleteByQuiz(ctx context.Context, in CompleteByQuizInput) (ApproveProgressResult, error)
}

type SubmitProgressInput struct {
	MemberID      uuid.UUID
	RequirementID uuid.UUID
	AnswerText    *string
	FileRef       *string
	SubmittedAt   time.Time
}

type SubmitProgressResult struct {
	Record *progress.ProgressRecord
	// AlreadyApproved is set when the pair was APPROVED and the submission left it untouched.
	AlreadyApproved bool
}

type AssignProgressInput struct {
	RequirementID uuid.UUID
	MemberIDs     []uuid.UUID

	AssignerID     uuid.UUID
	AssignerRole   string
	AssignerClubID uuid.UUID
	AssignerUnitID *uuid.UUID
}

type AssignProgressResult struct {
	// Targeted counts member ids that survived role filtering.
	Targeted int
	Created  int
}

type ApproveProgressInput struct {
	ProgressID   uuid.UUID
	ApproverID   uuid.UUID
	ApproverRole string
	ApprovedAt   time.Time
}

type CompleteByQuizInput struct {
	MemberID      uuid.UUID
	RequirementID uuid.UUID
	CompletedAt   time.Time
}

type MilestoneAward struct {
	Threshold int
	Points    int
	Percent   int
}

type ApproveProgressResult struct {
	Record         *progress.ProgressRecord
	Milestones     []MilestoneAward
	BadgeCompleted bool
	PointsAwarded  int
	// Notifications are delivered by the caller after commit.
	Notifications []progress.Notification
}

type RejectProgressInput struct {
	ProgressID uuid.UUID
	Comment    *string
	RejectedAt time.Time
}

type RejectProgressResult struct {
	Record        *progress.ProgressRecord
	Notifications []progress.Notification
}
