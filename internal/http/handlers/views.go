package handlers

import (
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/trailmark-backend/internal/domain"
	domainagg "github.com/yungbote/trailmark-backend/internal/domain/aggregates"
	"github.com/yungbote/trailmark-backend/internal/domain/curriculum"
)

// Response projections. Handlers never serialize persistence models directly.

type RequirementView struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code,omitempty"`
	Description string     `json:"description"`
	Area        string     `json:"area,omitempty"`
	RankClass   string     `json:"rank_class,omitempty"`
	BadgeID     *uuid.UUID `json:"badge_id,omitempty"`
	Kind        string     `json:"kind"`
	Scope       string     `json:"scope"`
	EventID     *uuid.UUID `json:"event_id,omitempty"`
}

type ProgressView struct {
	ID            uuid.UUID  `json:"id"`
	MemberID      uuid.UUID  `json:"member_id"`
	RequirementID uuid.UUID  `json:"requirement_id"`
	Status        string     `json:"status"`
	AnswerText    *string    `json:"answer_text,omitempty"`
	FileRef       *string    `json:"file_ref,omitempty"`
	ReviewComment *string    `json:"review_comment,omitempty"`
	ApprovedBy    *uuid.UUID `json:"approved_by,omitempty"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type ResolvedRowView struct {
	Requirement RequirementView `json:"requirement"`
	Progress    *ProgressView   `json:"progress,omitempty"`
	Inherited   bool            `json:"inherited,omitempty"`
}

type MilestoneView struct {
	Threshold int `json:"threshold"`
	Points    int `json:"points"`
	Percent   int `json:"percent"`
}

type ApproveView struct {
	Progress       ProgressView    `json:"progress"`
	PointsAwarded  int             `json:"points_awarded"`
	Milestones     []MilestoneView `json:"milestones"`
	BadgeCompleted bool            `json:"badge_completed"`
}

type QuestionView struct {
	ID            uuid.UUID `json:"id"`
	RequirementID uuid.UUID `json:"requirement_id"`
	Text          string    `json:"text"`
}

func requirementView(r *types.Requirement) RequirementView {
	return RequirementView{
		ID:          r.ID,
		Code:        r.Code,
		Description: r.Description,
		Area:        r.Area,
		RankClass:   r.RankClass,
		BadgeID:     r.BadgeID,
		Kind:        r.Kind,
		Scope:       r.Scope,
		EventID:     r.EventID,
	}
}

func progressView(p *types.ProgressRecord) ProgressView {
	return ProgressView{
		ID:            p.ID,
		MemberID:      p.MemberID,
		RequirementID: p.RequirementID,
		Status:        p.Status,
		AnswerText:    p.AnswerText,
		FileRef:       p.FileRef,
		ReviewComment: p.ReviewComment,
		ApprovedBy:    p.ApprovedBy,
		SubmittedAt:   p.SubmittedAt,
		CompletedAt:   p.CompletedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func progressViews(rows []*types.ProgressRecord) []ProgressView {
	out := make([]ProgressView, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			out = append(out, progressView(r))
		}
	}
	return out
}

func resolvedViews(rows []curriculum.Resolved) []ResolvedRowView {
	out := make([]ResolvedRowView, 0, len(rows))
	for _, r := range rows {
		if r.Requirement == nil {
			continue
		}
		row := ResolvedRowView{Requirement: requirementView(r.Requirement), Inherited: r.Inherited}
		if r.Progress != nil {
			pv := progressView(r.Progress)
			row.Progress = &pv
		}
		out = append(out, row)
	}
	return out
}

func approveView(res domainagg.ApproveProgressResult) ApproveView {
	out := ApproveView{
		PointsAwarded:  res.PointsAwarded,
		Milestones:     make([]MilestoneView, 0, len(res.Milestones)),
		BadgeCompleted: res.BadgeCompleted,
	}
	if res.Record != nil {
		out.Progress = progressView(res.Record)
	}
	for _, m := range res.Milestones {
		out.Milestones = append(out.Milestones, MilestoneView{Threshold: m.Threshold, Points: m.Points, Percent: m.Percent})
	}
	return out
}
