package curriculum

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	KindText = "TEXT"
	KindFile = "FILE"
	KindQuiz = "QUIZ"
)

const (
	ScopeGlobal   = "GLOBAL"
	ScopeRegion   = "REGION"
	ScopeDistrict = "DISTRICT"
	ScopeClub     = "CLUB"
)

// Requirement is a single gradable task tied to a rank class or a badge.
// Exactly one scope key (Region, District, ClubID) is set for non-GLOBAL scopes.
type Requirement struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string     `gorm:"column:code;index" json:"code,omitempty"`
	Description string     `gorm:"column:description;not null" json:"description"`
	Area        string     `gorm:"column:area" json:"area,omitempty"`
	RankClass   string     `gorm:"column:rank_class;index" json:"rank_class,omitempty"`
	BadgeID     *uuid.UUID `gorm:"type:uuid;column:badge_id;index" json:"badge_id,omitempty"`
	Kind        string     `gorm:"column:kind;not null" json:"kind"`

	Scope    string     `gorm:"column:scope;not null;index" json:"scope"`
	Region   *string    `gorm:"column:region;index" json:"region,omitempty"`
	District *string    `gorm:"column:district;index" json:"district,omitempty"`
	ClubID   *uuid.UUID `gorm:"type:uuid;column:club_id;index" json:"club_id,omitempty"`

	// EventID links the requirement to a regional event; submissions require the
	// member's club to be a registered participant.
	EventID *uuid.UUID `gorm:"type:uuid;column:event_id;index" json:"event_id,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Requirement) TableName() string { return "requirement" }

func (r *Requirement) IsQuiz() bool { return r != nil && r.Kind == KindQuiz }

func (r *Requirement) IsEventLinked() bool {
	return r != nil && r.EventID != nil && *r.EventID != uuid.Nil
}

// ValidateScope checks that the scope tag and scope keys agree.
func (r *Requirement) ValidateScope() error {
	if r == nil {
		return fmt.Errorf("requirement is nil")
	}
	hasRegion := r.Region != nil && strings.TrimSpace(*r.Region) != ""
	hasDistrict := r.District != nil && strings.TrimSpace(*r.District) != ""
	hasClub := r.ClubID != nil && *r.ClubID != uuid.Nil
	switch r.Scope {
	case ScopeGlobal:
		if hasRegion || hasDistrict || hasClub {
			return fmt.Errorf("GLOBAL requirement must not carry a scope key")
		}
	case ScopeRegion:
		if !hasRegion || hasDistrict || hasClub {
			return fmt.Errorf("REGION requirement must carry only a region")
		}
	case ScopeDistrict:
		if !hasDistrict || hasRegion || hasClub {
			return fmt.Errorf("DISTRICT requirement must carry only a district")
		}
	case ScopeClub:
		if !hasClub || hasRegion || hasDistrict {
			return fmt.Errorf("CLUB requirement must carry only a club id")
		}
	default:
		return fmt.Errorf("unknown scope %q", r.Scope)
	}
	return nil
}

func IsKnownKind(kind string) bool {
	switch kind {
	case KindText, KindFile, KindQuiz:
		return true
	}
	return false
}

// Precedence orders scopes for override resolution; higher wins.
func Precedence(scope string) int {
	switch scope {
	case ScopeClub:
		return 4
	case ScopeDistrict:
		return 3
	case ScopeRegion:
		return 2
	case ScopeGlobal:
		return 1
	default:
		return 0
	}
}
