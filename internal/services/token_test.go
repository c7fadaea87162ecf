package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainclub "github.com/yungbote/trailmark-backend/internal/domain/club"
	"github.com/yungbote/trailmark-backend/internal/platform/ctxutil"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

func TestTokenRoundTripCarriesPrincipal(t *testing.T) {
	ts := NewTokenService(logger.Nop(), "secret")
	unit := uuid.New()
	want := ctxutil.Principal{
		MemberID:  uuid.New(),
		Role:      domainclub.RoleCounselor,
		ClubID:    uuid.New(),
		UnitID:    &unit,
		RankClass: "FRIEND",
		Region:    "north",
		District:  "d1",
	}
	tok, err := ts.IssueToken(want, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	ctx, err := ts.SetContextFromToken(context.Background(), tok)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	got := ctxutil.GetPrincipal(ctx)
	if got == nil {
		t.Fatalf("principal missing from context")
	}
	if got.MemberID != want.MemberID || got.Role != want.Role || got.ClubID != want.ClubID ||
		got.UnitID == nil || *got.UnitID != unit || got.RankClass != want.RankClass ||
		got.Region != want.Region || got.District != want.District {
		t.Fatalf("principal: want=%+v got=%+v", want, *got)
	}
}

func TestTokenRejectsBadTokens(t *testing.T) {
	ts := NewTokenService(logger.Nop(), "secret").(*tokenService)
	p := ctxutil.Principal{MemberID: uuid.New(), Role: domainclub.RoleMember, ClubID: uuid.New()}

	other, _ := NewTokenService(logger.Nop(), "other").IssueToken(p, time.Hour)
	expired, _ := ts.IssueToken(p, time.Minute)
	ts.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	badRole := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		Role:             "WIZARD",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer, Subject: uuid.NewString()},
	})
	badRoleTok, _ := badRole.SignedString([]byte("secret"))
	noneTok, _ := jwt.NewWithClaims(jwt.SigningMethodNone, JWTClaims{
		Role:             domainclub.RoleOwner,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer, Subject: uuid.NewString()},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := map[string]string{
		"empty":     "",
		"garbage":   "not-a-jwt",
		"wrong key": other,
		"expired":   expired,
		"bad role":  badRoleTok,
		"alg none":  noneTok,
	}
	for name, tok := range cases {
		if _, err := ts.SetContextFromToken(context.Background(), tok); err == nil {
			t.Fatalf("%s: want error", name)
		}
	}
}
