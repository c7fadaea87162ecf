package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/trailmark-backend/internal/data/repos"
	repotest "github.com/yungbote/trailmark-backend/internal/data/repos/testutil"
	types "github.com/yungbote/trailmark-backend/internal/domain"
	domainagg "github.com/yungbote/trailmark-backend/internal/domain/aggregates"
	domainclub "github.com/yungbote/trailmark-backend/internal/domain/club"
	"github.com/yungbote/trailmark-backend/internal/domain/curriculum"
	domainprog "github.com/yungbote/trailmark-backend/internal/domain/progress"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
)

const sampleCurriculum = `
badges:
  - name: Knots
    area: Outdoor
requirements:
  - code: F-1
    description: Recite the pledge
    area: Basics
    rank_class: FRIEND
  - description: Tie a square knot
    badge: Knots
  - code: K-Q
    description: Knots theory
    badge: Knots
    questions:
      - text: Which knot joins two ropes?
        options: [bowline, sheet bend, clove hitch]
        correct: 1
      - text: Which knot makes a fixed loop?
        options: [bowline, reef]
        correct: 0
  - code: N-1
    description: Northern hike
    rank_class: FRIEND
    scope: REGION
    region: north
`

func TestCurriculumImportIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.curriculum.Import(ctx, []byte(sampleCurriculum))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Requirements != 4 || res.Questions != 2 || res.Skipped != 0 {
		t.Fatalf("Import: got=%+v", res)
	}

	res, err = h.curriculum.Import(ctx, []byte(sampleCurriculum))
	if err != nil {
		t.Fatalf("Import again: %v", err)
	}
	if res.Requirements != 0 || res.Skipped != 4 {
		t.Fatalf("Import again: got=%+v", res)
	}

	var quiz []types.Requirement
	if err := h.db.Where("code = ?", "K-Q").Find(&quiz).Error; err != nil || len(quiz) != 1 {
		t.Fatalf("quiz requirement: rows=%d err=%v", len(quiz), err)
	}
	if quiz[0].Kind != curriculum.KindQuiz || quiz[0].BadgeID == nil {
		t.Fatalf("quiz requirement: %+v", quiz[0])
	}
	var region []types.Requirement
	if err := h.db.Where("code = ?", "N-1").Find(&region).Error; err != nil || len(region) != 1 {
		t.Fatalf("region requirement: rows=%d err=%v", len(region), err)
	}
	if region[0].Scope != curriculum.ScopeRegion || region[0].Region == nil || *region[0].Region != "north" {
		t.Fatalf("region requirement: %+v", region[0])
	}
}

func TestCurriculumImportRejectsBadDocuments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cases := map[string]string{
		"not yaml":        "requirements: [",
		"no description":  "requirements:\n  - rank_class: FRIEND\n",
		"no rank or badge": "requirements:\n  - description: floating\n",
		"scope mismatch":  "requirements:\n  - description: x\n    rank_class: FRIEND\n    scope: CLUB\n",
		"bad answer key":  "requirements:\n  - description: q\n    rank_class: FRIEND\n    questions:\n      - text: t\n        options: [a, b]\n        correct: 5\n",
	}
	for name, doc := range cases {
		if _, err := h.curriculum.Import(ctx, []byte(doc)); !domainagg.IsCode(err, domainagg.CodeValidation) {
			t.Fatalf("%s: want validation, got=%v", name, err)
		}
	}
	var n int64
	if err := h.db.Model(&types.Requirement{}).Count(&n).Error; err != nil || n != 0 {
		t.Fatalf("failed imports left rows behind: n=%d err=%v", n, err)
	}
}

func TestCurriculumCreateRequirementScopes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fx := seedClubFixture(t, ctx, h, 0)

	created, err := h.curriculum.CreateRequirement(as(ctx, fx.instructor, fx.club), CreateRequirementInput{
		Code:        "F-1",
		Description: "Local variant",
		RankClass:   fx.rank,
		Kind:        curriculum.KindText,
		Scope:       curriculum.ScopeClub,
	})
	if err != nil {
		t.Fatalf("CreateRequirement club: %v", err)
	}
	if created.ClubID == nil || *created.ClubID != fx.club.ID {
		t.Fatalf("CreateRequirement club id: %+v", created)
	}

	cases := []struct {
		name string
		in   CreateRequirementInput
		code domainagg.ErrorCode
	}{
		{name: "global via api", in: CreateRequirementInput{Description: "x", RankClass: fx.rank, Kind: "TEXT", Scope: "GLOBAL"}, code: domainagg.CodeValidation},
		{name: "instructor at region", in: CreateRequirementInput{Description: "x", RankClass: fx.rank, Kind: "TEXT", Scope: "REGION"}, code: domainagg.CodeUnauthorized},
		{name: "unknown kind", in: CreateRequirementInput{Description: "x", RankClass: fx.rank, Kind: "ESSAY", Scope: "CLUB"}, code: domainagg.CodeValidation},
		{name: "no rank or badge", in: CreateRequirementInput{Description: "x", Kind: "TEXT", Scope: "CLUB"}, code: domainagg.CodeValidation},
		{name: "missing badge", in: CreateRequirementInput{Description: "x", BadgeID: repotest.PtrUUID(uuid.New()), Kind: "TEXT", Scope: "CLUB"}, code: domainagg.CodeNotFound},
	}
	for _, tc := range cases {
		_, err := h.curriculum.CreateRequirement(as(ctx, fx.instructor, fx.club), tc.in)
		if !domainagg.IsCode(err, tc.code) {
			t.Fatalf("%s: want %s, got=%v", tc.name, tc.code, err)
		}
	}

	if _, err := h.curriculum.CreateRequirement(as(ctx, fx.member, fx.club), CreateRequirementInput{
		Description: "x", RankClass: fx.rank, Kind: "TEXT", Scope: "CLUB",
	}); !domainagg.IsCode(err, domainagg.CodeUnauthorized) {
		t.Fatalf("member create: want unauthorized, got=%v", err)
	}
}

func TestCurriculumDeleteRemovesProgressAndQuestions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fx := seedClubFixture(t, ctx, h, 0)
	admin := repotest.SeedMember(t, ctx, h.db, fx.club.ID, domainclub.RoleAdmin, "", nil)
	req := repotest.SeedRequirement(t, ctx, h.db, fx.rank, "Club quiz",
		repotest.WithClubScope(fx.club.ID), repotest.WithKind(curriculum.KindQuiz))
	repotest.SeedQuestion(t, ctx, h.db, req.ID, "q", []string{"a", "b"}, 0)
	repotest.SeedProgress(t, ctx, h.db, fx.member.ID, req.ID, domainprog.StatusPending)

	if _, err := h.curriculum.DeleteRequirement(as(ctx, fx.instructor, fx.club), req.ID); !domainagg.IsCode(err, domainagg.CodeUnauthorized) {
		t.Fatalf("instructor delete: want unauthorized, got=%v", err)
	}

	res, err := h.curriculum.DeleteRequirement(as(ctx, admin, fx.club), req.ID)
	if err != nil {
		t.Fatalf("DeleteRequirement: %v", err)
	}
	if res.DeletedRecords != 1 {
		t.Fatalf("DeleteRequirement: want 1 progress record removed, got=%d", res.DeletedRecords)
	}
	got, err := h.reqs.GetByID(dbctx.Background(ctx), req.ID)
	if err != nil || got != nil {
		t.Fatalf("requirement still present: %+v err=%v", got, err)
	}
	qs, err := repos.NewQuizQuestionRepo(h.db, repotest.Logger(t)).ListByRequirementID(dbctx.Background(ctx), req.ID)
	if err != nil || len(qs) != 0 {
		t.Fatalf("questions left behind: n=%d err=%v", len(qs), err)
	}
	if _, err := h.curriculum.DeleteRequirement(as(ctx, admin, fx.club), req.ID); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("delete twice: want not_found, got=%v", err)
	}
}

func TestCurriculumAddQuestion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fx := seedClubFixture(t, ctx, h, 0)
	req := repotest.SeedRequirement(t, ctx, h.db, fx.rank, "Club quiz",
		repotest.WithClubScope(fx.club.ID), repotest.WithKind(curriculum.KindQuiz))

	q, err := h.curriculum.AddQuestion(as(ctx, fx.instructor, fx.club), AddQuestionInput{
		RequirementID: req.ID, Text: "Pick b", Options: []string{"a", "b"}, CorrectIndex: 1,
	})
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	if q.CorrectIndex != 1 || string(q.Options) != `["a","b"]` {
		t.Fatalf("AddQuestion: %+v", q)
	}
	if _, err := h.curriculum.AddQuestion(as(ctx, fx.instructor, fx.club), AddQuestionInput{
		RequirementID: req.ID, Text: "bad", Options: []string{"a", "b"}, CorrectIndex: 2,
	}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("AddQuestion out of range: want validation, got=%v", err)
	}
}
