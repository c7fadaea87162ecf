package club

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleMember     = "MEMBER"
	RoleCounselor  = "COUNSELOR"
	RoleInstructor = "INSTRUCTOR"
	RoleAdmin      = "ADMIN"
	RoleOwner      = "OWNER"
	RoleRegional   = "REGIONAL"
	RoleDistrict   = "DISTRICT"
)

const (
	BillingActive   = "ACTIVE"
	BillingTrial    = "TRIAL"
	BillingPastDue  = "PAST_DUE"
	BillingCanceled = "CANCELED"
)

type Club struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string    `gorm:"column:name;not null" json:"name"`
	Region   string    `gorm:"column:region;index" json:"region,omitempty"`
	District string    `gorm:"column:district;index" json:"district,omitempty"`

	BillingStatus string     `gorm:"column:billing_status;not null" json:"billing_status"`
	PaidThrough   *time.Time `gorm:"column:paid_through" json:"paid_through,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Club) TableName() string { return "club" }

// Member is a person enrolled in a club. Points is a cached sum of the points
// ledger; LastMilestone is the highest completion threshold already rewarded
// for the current rank class.
type Member struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"column:name;not null" json:"name"`
	Email     string     `gorm:"column:email;index" json:"email,omitempty"`
	Role      string     `gorm:"column:role;not null;index" json:"role"`
	ClubID    uuid.UUID  `gorm:"type:uuid;column:club_id;not null;index" json:"club_id"`
	UnitID    *uuid.UUID `gorm:"type:uuid;column:unit_id;index" json:"unit_id,omitempty"`
	RankClass string     `gorm:"column:rank_class" json:"rank_class,omitempty"`

	Points        int `gorm:"column:points;not null;default:0" json:"points"`
	LastMilestone int `gorm:"column:last_milestone;not null;default:0" json:"last_milestone"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Member) TableName() string { return "member" }

func (m *Member) InUnit(unitID *uuid.UUID) bool {
	if m == nil || m.UnitID == nil || unitID == nil {
		return false
	}
	return *m.UnitID == *unitID
}

// EventParticipant registers a club for a regional event.
type EventParticipant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventID   uuid.UUID `gorm:"type:uuid;column:event_id;not null;uniqueIndex:idx_event_participant_event_club" json:"event_id"`
	ClubID    uuid.UUID `gorm:"type:uuid;column:club_id;not null;uniqueIndex:idx_event_participant_event_club" json:"club_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (EventParticipant) TableName() string { return "event_participant" }

// IsStaff reports whether role may review submissions at club level.
func IsStaff(role string) bool {
	switch role {
	case RoleCounselor, RoleInstructor, RoleAdmin, RoleOwner:
		return true
	}
	return false
}

// CanCompleteBadge reports whether an approval by role may complete a badge.
func CanCompleteBadge(role string) bool {
	switch role {
	case RoleInstructor, RoleAdmin, RoleOwner:
		return true
	}
	return false
}

func IsHierarchyReviewer(role string) bool {
	return role == RoleRegional || role == RoleDistrict
}

func IsRole(role string) bool {
	switch role {
	case RoleMember, RoleCounselor, RoleInstructor, RoleAdmin, RoleOwner, RoleRegional, RoleDistrict:
		return true
	}
	return false
}
