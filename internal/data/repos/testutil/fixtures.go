package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/trailmark-backend/internal/domain"
	domainclub "github.com/yungbote/trailmark-backend/internal/domain/club"
	"github.com/yungbote/trailmark-backend/internal/domain/curriculum"
)

func SeedClub(tb testing.TB, ctx context.Context, tx *gorm.DB, region, district string) *types.Club {
	tb.Helper()
	now := time.Now().UTC()
	c := &types.Club{
		ID:            uuid.New(),
		Name:          "club-" + uuid.NewString()[:8],
		Region:        region,
		District:      district,
		BillingStatus: domainclub.BillingActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed club: %v", err)
	}
	return c
}

func SeedMember(tb testing.TB, ctx context.Context, tx *gorm.DB, clubID uuid.UUID, role, rankClass string, unitID *uuid.UUID) *types.Member {
	tb.Helper()
	now := time.Now().UTC()
	m := &types.Member{
		ID:        uuid.New(),
		Name:      "member-" + uuid.NewString()[:8],
		Role:      role,
		ClubID:    clubID,
		UnitID:    unitID,
		RankClass: rankClass,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed member: %v", err)
	}
	return m
}

func SeedBadge(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Badge {
	tb.Helper()
	now := time.Now().UTC()
	b := &types.Badge{ID: uuid.New(), Name: name, Area: "nature", CreatedAt: now, UpdatedAt: now}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed badge: %v", err)
	}
	return b
}

// RequirementOpt mutates a requirement before insert.
type RequirementOpt func(*types.Requirement)

func WithCode(code string) RequirementOpt {
	return func(r *types.Requirement) { r.Code = code }
}

func WithBadge(badgeID uuid.UUID) RequirementOpt {
	return func(r *types.Requirement) { r.BadgeID = &badgeID; r.RankClass = "" }
}

func WithKind(kind string) RequirementOpt {
	return func(r *types.Requirement) { r.Kind = kind }
}

func WithClubScope(clubID uuid.UUID) RequirementOpt {
	return func(r *types.Requirement) { r.Scope = curriculum.ScopeClub; r.ClubID = &clubID }
}

func WithRegionScope(region string) RequirementOpt {
	return func(r *types.Requirement) { r.Scope = curriculum.ScopeRegion; r.Region = &region }
}

func WithDistrictScope(district string) RequirementOpt {
	return func(r *types.Requirement) { r.Scope = curriculum.ScopeDistrict; r.District = &district }
}

func WithEvent(eventID uuid.UUID) RequirementOpt {
	return func(r *types.Requirement) { r.EventID = &eventID }
}

// SeedRequirement inserts a GLOBAL TEXT requirement for rankClass unless opts say otherwise.
func SeedRequirement(tb testing.TB, ctx context.Context, tx *gorm.DB, rankClass, description string, opts ...RequirementOpt) *types.Requirement {
	tb.Helper()
	now := time.Now().UTC()
	r := &types.Requirement{
		ID:          uuid.New(),
		Description: description,
		Area:        "general",
		RankClass:   rankClass,
		Kind:        curriculum.KindText,
		Scope:       curriculum.ScopeGlobal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed requirement: %v", err)
	}
	return r
}

func SeedProgress(tb testing.TB, ctx context.Context, tx *gorm.DB, memberID, requirementID uuid.UUID, status string) *types.ProgressRecord {
	tb.Helper()
	now := time.Now().UTC()
	p := &types.ProgressRecord{
		ID:            uuid.New(),
		MemberID:      memberID,
		RequirementID: requirementID,
		Status:        status,
		SubmittedAt:   &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if status == "APPROVED" {
		p.CompletedAt = &now
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
	return p
}

func SeedQuestion(tb testing.TB, ctx context.Context, tx *gorm.DB, requirementID uuid.UUID, text string, options []string, correct int) *types.QuizQuestion {
	tb.Helper()
	raw, err := json.Marshal(options)
	if err != nil {
		tb.Fatalf("marshal options: %v", err)
	}
	q := &types.QuizQuestion{
		ID:            uuid.New(),
		RequirementID: requirementID,
		Text:          text,
		Options:       datatypes.JSON(raw),
		CorrectIndex:  correct,
		CreatedAt:     time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed question: %v", err)
	}
	return q
}
