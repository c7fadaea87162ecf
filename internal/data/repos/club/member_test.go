package club

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/trailmark-backend/internal/data/repos/testutil"
	domainclub "github.com/yungbote/trailmark-backend/internal/domain/club"
	"github.com/yungbote/trailmark-backend/internal/platform/dbctx"
)

func TestMemberRepoPointsAndLock(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewMemberRepo(db, testutil.Logger(t))

	club := testutil.SeedClub(t, ctx, tx, "north", "d1")
	m := testutil.SeedMember(t, ctx, tx, club.ID, domainclub.RoleMember, "FRIEND", nil)

	locked, err := repo.LockByID(dbc, m.ID)
	if err != nil || locked == nil || locked.ID != m.ID {
		t.Fatalf("LockByID: got=%v err=%v", locked, err)
	}
	if err := repo.AddPoints(dbc, m.ID, 100, nil); err != nil {
		t.Fatalf("AddPoints: %v", err)
	}
	watermark := 50
	if err := repo.AddPoints(dbc, m.ID, 200, &watermark); err != nil {
		t.Fatalf("AddPoints watermark: %v", err)
	}
	got, err := repo.GetByID(dbc, m.ID)
	if err != nil || got.Points != 300 || got.LastMilestone != 50 {
		t.Fatalf("after AddPoints: got=%+v err=%v", got, err)
	}
	if missing, err := repo.LockByID(dbc, uuid.New()); err != nil || missing != nil {
		t.Fatalf("LockByID missing: got=%v err=%v", missing, err)
	}
}

func TestMemberRepoStaffQueries(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewMemberRepo(db, testutil.Logger(t))

	region := "r-" + uuid.NewString()[:8]
	district := "d-" + uuid.NewString()[:8]
	club := testutil.SeedClub(t, ctx, tx, region, district)
	unit := uuid.New()

	testutil.SeedMember(t, ctx, tx, club.ID, domainclub.RoleCounselor, "", &unit)
	testutil.SeedMember(t, ctx, tx, club.ID, domainclub.RoleCounselor, "", nil)
	testutil.SeedMember(t, ctx, tx, club.ID, domainclub.RoleInstructor, "", nil)
	testutil.SeedMember(t, ctx, tx, club.ID, domainclub.RoleRegional, "", nil)
	testutil.SeedMember(t, ctx, tx, club.ID, domainclub.RoleDistrict, "", nil)

	staff, err := repo.ListClubStaff(dbc, club.ID, []string{domainclub.RoleInstructor, domainclub.RoleAdmin})
	if err != nil || len(staff) != 1 {
		t.Fatalf("ListClubStaff: err=%v len=%d", err, len(staff))
	}
	unitStaff, err := repo.ListUnitStaff(dbc, club.ID, unit, []string{domainclub.RoleCounselor})
	if err != nil || len(unitStaff) != 1 {
		t.Fatalf("ListUnitStaff: err=%v len=%d", err, len(unitStaff))
	}
	reviewers, err := repo.ListHierarchyReviewers(dbc, region, district)
	if err != nil || len(reviewers) != 2 {
		t.Fatalf("ListHierarchyReviewers: err=%v len=%d", err, len(reviewers))
	}
	reviewers, err = repo.ListHierarchyReviewers(dbc, region, "")
	if err != nil || len(reviewers) != 1 || reviewers[0].Role != domainclub.RoleRegional {
		t.Fatalf("ListHierarchyReviewers region only: err=%v rows=%v", err, reviewers)
	}
}

func TestEventParticipantRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewEventParticipantRepo(db, testutil.Logger(t))

	eventID, clubID := uuid.New(), uuid.New()
	if ok, err := repo.Exists(dbc, eventID, clubID); err != nil || ok {
		t.Fatalf("Exists before register: ok=%v err=%v", ok, err)
	}
	for i := 0; i < 2; i++ {
		if err := repo.Register(dbc, eventID, clubID); err != nil {
			t.Fatalf("Register #%d: %v", i, err)
		}
	}
	if ok, err := repo.Exists(dbc, eventID, clubID); err != nil || !ok {
		t.Fatalf("Exists after register: ok=%v err=%v", ok, err)
	}
}
