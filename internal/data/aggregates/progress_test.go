package aggregates

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trailmark-backend/internal/data/repos"
	repotest "github.com/yungbote/trailmark-backend/internal/data/repos/testutil"
	types "github.com/yungbote/trailmark-backend/internal/domain"
	domainagg "github.com/yungbote/trailmark-backend/internal/domain/aggregates"
	domainclub "github.com/yungbote/trailmark-backend/internal/domain/club"
	"github.com/yungbote/trailmark-backend/internal/domain/curriculum"
	domainprog "github.com/yungbote/trailmark-backend/internal/domain/progress"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
)

func dbcOf(ctx context.Context) dbctx.Context { return dbctx.Background(ctx) }

func newTestProgressAggregate(t *testing.T, db *gorm.DB, hooks Hooks) domainagg.ProgressAggregate {
	t.Helper()
	log := repotest.Logger(t)
	return NewProgressAggregate(ProgressAggregateDeps{
		Base: BaseDeps{
			DB:          db,
			Runner:      NewGormTxRunner(db),
			Hooks:       hooks,
			Transitions: NewProgressTransitions(db),
		},
		Requirements: repos.NewRequirementRepo(db, log),
		Progress:     repos.NewProgressRecordRepo(db, log),
		Members:      repos.NewMemberRepo(db, log),
		Clubs:        repos.NewClubRepo(db, log),
		Badges:       repos.NewBadgeRepo(db, log),
		MemberBadges: repos.NewMemberBadgeRepo(db, log),
		Ledger:       repos.NewPointsLedgerRepo(db, log),
	})
}

type progressFixture struct {
	club   *types.Club
	member *types.Member
	rank   string
}

func seedProgressFixture(t *testing.T, ctx context.Context, db *gorm.DB) progressFixture {
	t.Helper()
	rank := "FRIEND-" + uuid.NewString()[:8]
	club := repotest.SeedClub(t, ctx, db, "north", "d1")
	member := repotest.SeedMember(t, ctx, db, club.ID, domainclub.RoleMember, rank, nil)
	return progressFixture{club: club, member: member, rank: rank}
}

func reloadMember(t *testing.T, db *gorm.DB, id uuid.UUID) *types.Member {
	t.Helper()
	var m types.Member
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		t.Fatalf("reload member: %v", err)
	}
	return &m
}

func assertLedgerMatchesPoints(t *testing.T, ctx context.Context, db *gorm.DB, memberID uuid.UUID) {
	t.Helper()
	sum, err := repos.NewPointsLedgerRepo(db, repotest.Logger(t)).SumByMember(dbcOf(ctx), memberID)
	if err != nil {
		t.Fatalf("SumByMember: %v", err)
	}
	m := reloadMember(t, db, memberID)
	if int64(m.Points) != sum {
		t.Fatalf("points cache drifted from ledger: points=%d ledger=%d", m.Points, sum)
	}
}

func TestProgressAggregateMilestoneAwardExactness(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	fx := seedProgressFixture(t, ctx, db)
	agg := newTestProgressAggregate(t, db, nil)

	var recs []*types.ProgressRecord
	for i := 0; i < 4; i++ {
		req := repotest.SeedRequirement(t, ctx, db, fx.rank, "Task "+uuid.NewString()[:6])
		recs = append(recs, repotest.SeedProgress(t, ctx, db, fx.member.ID, req.ID, domainprog.StatusPending))
	}

	res, err := agg.Approve(ctx, domainagg.ApproveProgressInput{ProgressID: recs[0].ID, ApproverRole: domainclub.RoleInstructor})
	if err != nil {
		t.Fatalf("Approve #1: %v", err)
	}
	if res.PointsAwarded != 100 || len(res.Milestones) != 1 || res.Milestones[0].Threshold != 25 {
		t.Fatalf("Approve #1: want 100 points at 25%%, got=%+v", res)
	}
	if res.Record == nil || res.Record.Status != domainprog.StatusApproved || res.Record.CompletedAt == nil {
		t.Fatalf("Approve #1 record: %+v", res.Record)
	}

	res, err = agg.Approve(ctx, domainagg.ApproveProgressInput{ProgressID: recs[1].ID, ApproverRole: domainclub.RoleInstructor})
	if err != nil {
		t.Fatalf("Approve #2: %v", err)
	}
	if res.PointsAwarded != 200 {
		t.Fatalf("Approve #2: want 200 points, got=%d", res.PointsAwarded)
	}

	res, err = agg.Approve(ctx, domainagg.ApproveProgressInput{ProgressID: recs[0].ID, ApproverRole: domainclub.RoleInstructor})
	if err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	if res.PointsAwarded != 0 || len(res.Milestones) != 0 {
		t.Fatalf("re-approve: want no award, got=%+v", res)
	}

	m := reloadMember(t, db, fx.member.ID)
	if m.Points != 300 || m.LastMilestone != 50 {
		t.Fatalf("member: want points=300 watermark=50, got points=%d watermark=%d", m.Points, m.LastMilestone)
	}
	assertLedgerMatchesPoints(t, ctx, db, fx.member.ID)
}

func TestProgressAggregateRankRequirementWithBadgeRunsBothCascades(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	fx := seedProgressFixture(t, ctx, db)
	agg := newTestProgressAggregate(t, db, nil)

	badge := repotest.SeedBadge(t, ctx, db, "Camping-"+uuid.NewString()[:8])
	var recs []*types.ProgressRecord
	for i := 0; i < 4; i++ {
		req := repotest.SeedRequirement(t, ctx, db, fx.rank, "Camp task "+uuid.NewString()[:6], repotest.WithBadge(badge.ID))
		recs = append(recs, repotest.SeedProgress(t, ctx, db, fx.member.ID, req.ID, domainprog.StatusPending))
	}

	res, err := agg.Approve(ctx, domainagg.ApproveProgressInput{ProgressID: recs[0].ID, ApproverRole: domainclub.RoleInstructor})
	if err != nil {
		t.Fatalf("Approve #1: %v", err)
	}
	if res.PointsAwarded != 100 || len(res.Milestones) != 1 || res.Milestones[0].Threshold != 25 || res.BadgeCompleted {
		t.Fatalf("Approve #1: want 100 points at 25%% without badge, got=%+v", res)
	}
	if m := reloadMember(t, db, fx.member.ID); m.LastMilestone != 25 {
		t.Fatalf("watermark: want=25 got=%d", m.LastMilestone)
	}
	row, _ := repos.NewMemberBadgeRepo(db, repotest.Logger(t)).Get(dbcOf(ctx), fx.member.ID, badge.ID)
	if row == nil || row.Status != domainprog.BadgeInProgress {
		t.Fatalf("badge after #1: want IN_PROGRESS, got=%+v", row)
	}

	for i, rec := range recs[1:3] {
		if _, err := agg.Approve(ctx, domainagg.ApproveProgressInput{ProgressID: rec.ID, ApproverRole: domainclub.RoleInstructor}); err != nil {
			t.Fatalf("Approve #%d: %v", i+2, err)
		}
	}
	res, err = agg.Approve(ctx, domainagg.ApproveProgressInput{ProgressID: recs[3].ID, ApproverRole: domainclub.RoleInstructor})
	if err != nil {
		t.Fatalf("Approve #4: %v", err)
	}
	if !res.BadgeCompleted || res.PointsAwarded != 1000+domainprog.BadgeCompletionPoints {
		t.Fatalf("Approve #4: want 100%% milestone and badge, got=%+v", res)
	}
	if m := reloadMember(t, db, fx.member.ID); m.Points != 2100 || m.LastMilestone != 100 {
		t.Fatalf("member: want points=2100 watermark=100, got points=%d watermark=%d", m.Points, m.LastMilestone)
	}
	assertLedgerMatchesPoints(t, ctx, db, fx.member.ID)
}

func TestProgressAggregateMultipleThresholdsInOneApproval(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	fx := seedProgressFixture(t, ctx, db)
	agg := newTestProgressAggregate(t, db, nil)

	// 3 of 4 already approved without a cascade, so one approval jumps to 100%.
	var last *types.ProgressRecord
	for i := 0; i < 4; i++ {
		req := repotest.SeedRequirement(t, ctx, db, fx.rank, "Task "+uuid.NewString()[:6])
		status := domainprog.StatusApproved
		if i == 3 {
			status = domainprog.StatusPending
		}
		last = repotest.SeedProgress(t, ctx, db, fx.member.ID, req.ID, status)
	}

	res, err := agg.Approve(ctx, domainagg.ApproveProgressInput{ProgressID: last.ID, ApproverRole: domainclub.RoleAdmin})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if len(res.Milestones) != 4 || res.PointsAwarded != 1600 {
		t.Fatalf("Approve: want 4 milestones / 1600 points, got=%+v", res)
	}
	var milestoneNotes int
	for _, n := range res.Notifications {
		if n.Title == fx.rank+" complete" {
			milestoneNotes++
		}
	}
	if milestoneNotes != 1 {
		t.Fatalf("want exactly one milestone notification for the top threshold, got=%+v", res.Notifications)
	}

	var entries int64
	if err := db.Model(&types.PointsLedgerEntry{}).
		Where("member_id = ? AND source = ?", fx.member.ID, domainprog.SourceMilestone).
		Count(&entries).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if entries != 4 {
		t.Fatalf("ledger entries: want=4 got=%d", entries)
	}
	assertLedgerMatchesPoints(t, ctx, db, fx.member.ID)
}

func TestProgressAggregateOtherRankDoesNotTriggerMilestones(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	fx := seedProgressFixture(t, ctx, db)
	agg := newTestProgressAggregate(t, db, nil)

	req := repotest.SeedRequirement(t, ctx, db, "COMPANION-"+uuid.NewString()[:6], "Other rank")
	rec := repotest.SeedProgress(t, ctx, db, fx.member.ID, req.ID, domainprog.StatusPending)

	res, err := agg.Approve(ctx, domainagg.ApproveProgressInput{ProgressID: rec.ID, ApproverRole: domainclub.RoleAdmin})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if res.PointsAwarded != 0 {
		t.Fatalf("other rank awarded points: %+v", res)
	}
}

func TestProgressAggregateBadgeCompletionExactlyOnce(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	fx := seedProgressFixture(t, ctx, db)
	agg := newTestProgressAggregate(t, db, nil)

	badge := repotest.SeedBadge(t, ctx, db, "Knots-"+uuid.NewString()[:8])
	r1 := repotest.SeedRequirement(t, ctx, db, "", "Square knot", repotest.WithBadge(badge.ID))
	r2 := repotest.SeedRequirement(t, ctx, db, "", "Bowline", repotest.WithBadge(badge.ID))
	p1 := repotest.SeedProgress(t, ctx, db, fx.member.ID, r1.ID, domainprog.StatusPending)
	p2 := repotest.SeedProgress(t, ctx, db, fx.member.ID, r2.ID, domainprog.StatusPending)

	mb := repos.NewMemberBadgeRepo(db, repotest.Logger(t))

	res, err := agg.Approve(ctx, domainagg.ApproveProgressInput{ProgressID: p1.ID, ApproverRole: domainclub.RoleInstructor})
	if err != nil {
		t.Fatalf("Approve first: %v", err)
	}
	if res.BadgeCompleted || res.PointsAwarded != 0 {
		t.Fatalf("Approve first: badge should not complete, got=%+v", res)
	}
	row, _ := mb.Get(dbcOf(ctx), fx.member.ID, badge.ID)
	if row == nil || row.Status != domainprog.BadgeInProgress {
		t.Fatalf("after first: want IN_PROGRESS, got=%+v", row)
	}

	res, err = agg.Approve(ctx, domainagg.ApproveProgressInput{ProgressID: p2.ID, ApproverRole: domainclub.RoleInstructor})
	if err != nil {
		t.Fatalf("Approve second: %v", err)
	}
	if !res.BadgeCompleted || res.PointsAwarded != domainprog.BadgeCompletionPoints {
		t.Fatalf("Approve second: want completion with 500 points, got=%+v", res)
	}

	res, err = agg.Approve(ctx, domainagg.ApproveProgressInput{ProgressID: p2.ID, ApproverRole: domainclub.RoleOwner})
	if err != nil {
		t.Fatalf("re-approve second: %v", err)
	}
	if res.BadgeCompleted || res.PointsAwarded != 0 {
		t.Fatalf("re-approve second: want no award, got=%+v", res)
	}

	row, _ = mb.Get(dbcOf(ctx), fx.member.ID, badge.ID)
	if row == nil || row.Status != domainprog.BadgeCompleted || row.AwardedAt == nil {
		t.Fatalf("final badge row: %+v", row)
	}
	if m := reloadMember(t, db, fx.member.ID); m.Points != domainprog.BadgeCompletionPoints {
		t.Fatalf("points: want=%d got=%d", domainprog.BadgeCompletionPoints, m.Points)
	}
	assertLedgerMatchesPoints(t, ctx, db, fx.member.ID)
}

func TestProgressAggregateCounselorCannotCompleteBadge(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	fx := seedProgressFixture(t, ctx, db)
	agg := newTestProgressAggregate(t, db, nil)

	badge := repotest.SeedBadge(t, ctx, db, "Stars-"+uuid.NewString()[:8])
	r1 := repotest.SeedRequirement(t, ctx, db, "", "Find north", repotest.WithBadge(badge.ID))
	p1 := repotest.SeedProgress(t, ctx, db, fx.member.ID, r1.ID, domainprog.StatusPending)

	res, err := agg.Approve(ctx, domainagg.ApproveProgressInput{ProgressID: p1.ID, ApproverRole: domainclub.RoleCounselor})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if res.BadgeCompleted {
		t.Fatalf("counselor approval completed a badge")
	}

	// A later privileged re-approval completes it.
	res, err = agg.Approve(ctx, domainagg.ApproveProgressInput{ProgressID: p1.ID, ApproverRole: domainclub.RoleAdmin})
	if err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	if !res.BadgeCompleted {
		t.Fatalf("admin re-approval should complete the badge")
	}
}

func TestProgressAggregateInheritedProgressCountsTowardMilestones(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	fx := seedProgressFixture(t, ctx, db)
	agg := newTestProgressAggregate(t, db, nil)

	// Global A approved before the club override A' existed. Effective set is {A', B}.
	globalA := repotest.SeedRequirement(t, ctx, db, fx.rank, "Tie a knot", repotest.WithCode("A"))
	repotest.SeedRequirement(t, ctx, db, fx.rank, "Tie a club knot", repotest.WithCode("A"), repotest.WithClubScope(fx.club.ID))
	b := repotest.SeedRequirement(t, ctx, db, fx.rank, "Pitch a tent", repotest.WithCode("B"))
	repotest.SeedProgress(t, ctx, db, fx.member.ID, globalA.ID, domainprog.StatusApproved)
	pb := repotest.SeedProgress(t, ctx, db, fx.member.ID, b.ID, domainprog.StatusPending)

	res, err := agg.Approve(ctx, domainagg.ApproveProgressInput{ProgressID: pb.ID, ApproverRole: domainclub.RoleAdmin})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	// 2 of 2 effective requirements approved.
	if len(res.Milestones) != 4 {
		t.Fatalf("want all four thresholds, got=%+v", res.Milestones)
	}
}

func TestProgressAggregateConcurrentApprovalsAwardOnce(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	fx := seedProgressFixture(t, ctx, db)
	agg := newTestProgressAggregate(t, db, nil)

	var pending []*types.ProgressRecord
	for i := 0; i < 4; i++ {
		req := repotest.SeedRequirement(t, ctx, db, fx.rank, "Task "+uuid.NewString()[:6])
		if i < 2 {
			pending = append(pending, repotest.SeedProgress(t, ctx, db, fx.member.ID, req.ID, domainprog.StatusPending))
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, len(pending))
	for i, rec := range pending {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = agg.Approve(ctx, domainagg.ApproveProgressInput{ProgressID: id, ApproverRole: domainclub.RoleInstructor})
		}(i, rec.ID)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("Approve #%d: %v", i, err)
		}
	}

	m := reloadMember(t, db, fx.member.ID)
	if m.Points != 300 || m.LastMilestone != 50 {
		t.Fatalf("want points=300 watermark=50, got points=%d watermark=%d", m.Points, m.LastMilestone)
	}
	var quarter int64
	if err := db.Model(&types.PointsLedgerEntry{}).
		Where("member_id = ? AND amount = ?", fx.member.ID, 100).
		Count(&quarter).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if quarter != 1 {
		t.Fatalf("25%% bonus awarded %d times", quarter)
	}
	assertLedgerMatchesPoints(t, ctx, db, fx.member.ID)
}

// racingMemberRepo lets a rival approval commit right before the member row
// lock is granted, and records how the member row was read.
type racingMemberRepo struct {
	repos.MemberRepo
	race func(dbc dbctx.Context) error

	reads     []string
	lockInTx  bool
	raceFired bool
}

func (r *racingMemberRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Member, error) {
	r.reads = append(r.reads, "get")
	return r.MemberRepo.GetByID(dbc, id)
}

func (r *racingMemberRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Member, error) {
	r.reads = append(r.reads, "lock")
	r.lockInTx = dbc.Tx != nil
	if !r.raceFired && r.race != nil {
		r.raceFired = true
		if err := r.race(dbc); err != nil {
			return nil, err
		}
	}
	return r.MemberRepo.LockByID(dbc, id)
}

func TestProgressAggregateReadsWatermarkAfterMemberLock(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	fx := seedProgressFixture(t, ctx, db)
	log := repotest.Logger(t)

	var recs []*types.ProgressRecord
	for i := 0; i < 4; i++ {
		req := repotest.SeedRequirement(t, ctx, db, fx.rank, "Task "+uuid.NewString()[:6])
		recs = append(recs, repotest.SeedProgress(t, ctx, db, fx.member.ID, req.ID, domainprog.StatusPending))
	}

	members := &racingMemberRepo{MemberRepo: repos.NewMemberRepo(db, log)}
	// The rival approval of recs[1] already paid the 25% milestone.
	members.race = func(dbc dbctx.Context) error {
		tx := dbc.DB(db)
		if err := tx.Model(&types.ProgressRecord{}).Where("id = ?", recs[1].ID).
			Update("status", domainprog.StatusApproved).Error; err != nil {
			return err
		}
		return tx.Model(&types.Member{}).Where("id = ?", fx.member.ID).
			Updates(map[string]any{"points": 100, "last_milestone": 25}).Error
	}

	agg := NewProgressAggregate(ProgressAggregateDeps{
		Base:         BaseDeps{DB: db, Log: log},
		Requirements: repos.NewRequirementRepo(db, log),
		Progress:     repos.NewProgressRecordRepo(db, log),
		Members:      members,
		Clubs:        repos.NewClubRepo(db, log),
		Badges:       repos.NewBadgeRepo(db, log),
		MemberBadges: repos.NewMemberBadgeRepo(db, log),
		Ledger:       repos.NewPointsLedgerRepo(db, log),
	})

	res, err := agg.Approve(ctx, domainagg.ApproveProgressInput{ProgressID: recs[0].ID, ApproverRole: domainclub.RoleInstructor})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if !members.lockInTx {
		t.Fatalf("member lock taken outside the transaction")
	}
	if len(members.reads) == 0 || members.reads[0] != "lock" {
		t.Fatalf("member reads: want lock first, got=%v", members.reads)
	}
	if res.PointsAwarded != 200 || len(res.Milestones) != 1 || res.Milestones[0].Threshold != 50 {
		t.Fatalf("want only the 50%% milestone, got=%+v", res)
	}
	m := reloadMember(t, db, fx.member.ID)
	if m.Points != 300 || m.LastMilestone != 50 {
		t.Fatalf("member: want points=300 watermark=50, got points=%d watermark=%d", m.Points, m.LastMilestone)
	}
}

func TestProgressAggregateSubmitStateMachine(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	fx := seedProgressFixture(t, ctx, db)
	hooks := &spyHooks{}
	agg := newTestProgressAggregate(t, db, hooks)

	req := repotest.SeedRequirement(t, ctx, db, fx.rank, "Write an essay")
	text := "my essay"
	res, err := agg.Submit(ctx, domainagg.SubmitProgressInput{MemberID: fx.member.ID, RequirementID: req.ID, AnswerText: &text})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Record == nil || res.Record.Status != domainprog.StatusPending || res.AlreadyApproved {
		t.Fatalf("Submit: got=%+v", res)
	}

	comment := "too short"
	rej, err := agg.Reject(ctx, domainagg.RejectProgressInput{ProgressID: res.Record.ID, Comment: &comment})
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rej.Record.Status != domainprog.StatusRejected || rej.Record.ReviewComment == nil || rej.Record.CompletedAt == nil {
		t.Fatalf("Reject record: %+v", rej.Record)
	}
	if len(rej.Notifications) != 1 || rej.Notifications[0].MemberID != fx.member.ID {
		t.Fatalf("Reject notifications: %+v", rej.Notifications)
	}

	text2 := "a much longer essay"
	res2, err := agg.Submit(ctx, domainagg.SubmitProgressInput{MemberID: fx.member.ID, RequirementID: req.ID, AnswerText: &text2})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if res2.Record.ID != res.Record.ID || res2.Record.Status != domainprog.StatusPending {
		t.Fatalf("resubmit: want same row back to PENDING, got=%+v", res2.Record)
	}

	if _, err := agg.Approve(ctx, domainagg.ApproveProgressInput{ProgressID: res.Record.ID, ApproverRole: domainclub.RoleAdmin}); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	approved, err := agg.Submit(ctx, domainagg.SubmitProgressInput{MemberID: fx.member.ID, RequirementID: req.ID, AnswerText: &text})
	if err != nil {
		t.Fatalf("submit after approve: %v", err)
	}
	if !approved.AlreadyApproved || approved.Record.Status != domainprog.StatusApproved {
		t.Fatalf("submit after approve: got=%+v", approved)
	}

	_, err = agg.Reject(ctx, domainagg.RejectProgressInput{ProgressID: res.Record.ID})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("reject approved: want conflict, got=%v", err)
	}
	if len(hooks.Conflicts) != 1 {
		t.Fatalf("conflict hooks: %+v", hooks.Conflicts)
	}
}

func TestProgressAggregateSubmitErrors(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	fx := seedProgressFixture(t, ctx, db)
	agg := newTestProgressAggregate(t, db, nil)

	if _, err := agg.Submit(ctx, domainagg.SubmitProgressInput{MemberID: fx.member.ID, RequirementID: uuid.New()}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("unknown requirement: want not_found, got=%v", err)
	}
	quiz := repotest.SeedRequirement(t, ctx, db, fx.rank, "Quiz", repotest.WithKind(curriculum.KindQuiz))
	if _, err := agg.Submit(ctx, domainagg.SubmitProgressInput{MemberID: fx.member.ID, RequirementID: quiz.ID}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("quiz submit: want validation, got=%v", err)
	}
	if _, err := agg.Submit(ctx, domainagg.SubmitProgressInput{RequirementID: quiz.ID}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("missing member: want validation, got=%v", err)
	}
	if _, err := agg.Approve(ctx, domainagg.ApproveProgressInput{ProgressID: uuid.New()}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("approve unknown: want not_found, got=%v", err)
	}
}

func TestProgressAggregateAssign(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	fx := seedProgressFixture(t, ctx, db)
	agg := newTestProgressAggregate(t, db, nil)

	unit := uuid.New()
	inUnit := repotest.SeedMember(t, ctx, db, fx.club.ID, domainclub.RoleMember, fx.rank, &unit)
	outUnit := repotest.SeedMember(t, ctx, db, fx.club.ID, domainclub.RoleMember, fx.rank, nil)
	req := repotest.SeedRequirement(t, ctx, db, fx.rank, "Assigned")

	counselor := domainagg.AssignProgressInput{
		RequirementID:  req.ID,
		MemberIDs:      []uuid.UUID{inUnit.ID, outUnit.ID, uuid.New(), inUnit.ID},
		AssignerRole:   domainclub.RoleCounselor,
		AssignerClubID: fx.club.ID,
		AssignerUnitID: &unit,
	}
	res, err := agg.Assign(ctx, counselor)
	if err != nil {
		t.Fatalf("Assign counselor: %v", err)
	}
	if res.Created != 1 || res.Targeted != 1 {
		t.Fatalf("Assign counselor: want created=1 targeted=1, got=%+v", res)
	}

	admin := domainagg.AssignProgressInput{
		RequirementID:  req.ID,
		MemberIDs:      []uuid.UUID{inUnit.ID, outUnit.ID},
		AssignerRole:   domainclub.RoleAdmin,
		AssignerClubID: fx.club.ID,
	}
	res, err = agg.Assign(ctx, admin)
	if err != nil || res.Created != 1 {
		t.Fatalf("Assign admin: want created=1, got=%+v err=%v", res, err)
	}
	res, err = agg.Assign(ctx, admin)
	if err != nil || res.Created != 0 {
		t.Fatalf("Assign repeat: want created=0, got=%+v err=%v", res, err)
	}

	if _, err := agg.Assign(ctx, domainagg.AssignProgressInput{RequirementID: req.ID, AssignerRole: domainclub.RoleMember}); !domainagg.IsCode(err, domainagg.CodeUnauthorized) {
		t.Fatalf("Assign member role: want unauthorized, got=%v", err)
	}
}

func TestProgressAggregateCompleteByQuiz(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	fx := seedProgressFixture(t, ctx, db)
	agg := newTestProgressAggregate(t, db, nil)

	badge := repotest.SeedBadge(t, ctx, db, "Quiz-"+uuid.NewString()[:8])
	quiz := repotest.SeedRequirement(t, ctx, db, "", "Knot quiz", repotest.WithBadge(badge.ID), repotest.WithKind(curriculum.KindQuiz))

	res, err := agg.CompleteByQuiz(ctx, domainagg.CompleteByQuizInput{MemberID: fx.member.ID, RequirementID: quiz.ID, CompletedAt: time.Now()})
	if err != nil {
		t.Fatalf("CompleteByQuiz: %v", err)
	}
	if res.Record == nil || res.Record.Status != domainprog.StatusApproved {
		t.Fatalf("CompleteByQuiz record: %+v", res.Record)
	}
	if !res.BadgeCompleted {
		t.Fatalf("quiz pass on the only badge requirement should complete the badge")
	}

	again, err := agg.CompleteByQuiz(ctx, domainagg.CompleteByQuizInput{MemberID: fx.member.ID, RequirementID: quiz.ID})
	if err != nil {
		t.Fatalf("CompleteByQuiz repeat: %v", err)
	}
	if again.PointsAwarded != 0 || len(again.Notifications) != 0 {
		t.Fatalf("CompleteByQuiz repeat: want no effects, got=%+v", again)
	}

	text := repotest.SeedRequirement(t, ctx, db, fx.rank, "Not a quiz")
	if _, err := agg.CompleteByQuiz(ctx, domainagg.CompleteByQuizInput{MemberID: fx.member.ID, RequirementID: text.ID}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("non-quiz: want validation, got=%v", err)
	}
}
