package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

const (
	BadgeInProgress = "IN_PROGRESS"
	BadgeCompleted  = "COMPLETED"
)

const (
	SourceMilestone = "MILESTONE"
	SourceBadge     = "BADGE"
)

// ProgressRecord is the single row per (member, requirement) pair.
type ProgressRecord struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MemberID      uuid.UUID `gorm:"type:uuid;column:member_id;not null;uniqueIndex:idx_progress_member_requirement" json:"member_id"`
	RequirementID uuid.UUID `gorm:"type:uuid;column:requirement_id;not null;uniqueIndex:idx_progress_member_requirement;index" json:"requirement_id"`
	Status        string    `gorm:"column:status;not null;index" json:"status"`

	AnswerText    *string    `gorm:"column:answer_text" json:"answer_text,omitempty"`
	FileRef       *string    `gorm:"column:file_ref" json:"file_ref,omitempty"`
	ReviewComment *string    `gorm:"column:review_comment" json:"review_comment,omitempty"`
	ApprovedBy    *uuid.UUID `gorm:"type:uuid;column:approved_by" json:"approved_by,omitempty"`

	SubmittedAt *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ProgressRecord) TableName() string { return "progress_record" }

func (p *ProgressRecord) IsApproved() bool { return p != nil && p.Status == StatusApproved }

// MemberBadge tracks a member's relationship to a badge. COMPLETED is never reverted.
type MemberBadge struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	MemberID  uuid.UUID  `gorm:"type:uuid;column:member_id;not null;uniqueIndex:idx_member_badge_member_badge" json:"member_id"`
	BadgeID   uuid.UUID  `gorm:"type:uuid;column:badge_id;not null;uniqueIndex:idx_member_badge_member_badge" json:"badge_id"`
	Status    string     `gorm:"column:status;not null" json:"status"`
	AwardedAt *time.Time `gorm:"column:awarded_at" json:"awarded_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (MemberBadge) TableName() string { return "member_badge" }

// PointsLedgerEntry is append-only. Member.Points equals the sum of Amount per member.
type PointsLedgerEntry struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	MemberID      uuid.UUID      `gorm:"type:uuid;column:member_id;not null;index" json:"member_id"`
	Amount        int            `gorm:"column:amount;not null" json:"amount"`
	Reason        string         `gorm:"column:reason;not null" json:"reason"`
	Source        string         `gorm:"column:source;not null;index" json:"source"`
	RequirementID *uuid.UUID     `gorm:"type:uuid;column:requirement_id" json:"requirement_id,omitempty"`
	BadgeID       *uuid.UUID     `gorm:"type:uuid;column:badge_id" json:"badge_id,omitempty"`
	Metadata      datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;index" json:"created_at"`
}

func (PointsLedgerEntry) TableName() string { return "points_ledger_entry" }

const (
	SeverityInfo    = "info"
	SeveritySuccess = "success"
	SeverityWarning = "warning"
)

// Notification is queued during a write and delivered after commit.
type Notification struct {
	MemberID uuid.UUID `json:"member_id"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Severity string    `json:"severity"`
}
