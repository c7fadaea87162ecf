package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/yungbote/trailmark-backend/internal/platform/ctxutil"
	"github.com/yungbote/trailmark-backend/internal/platform/envutil"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
	"github.com/yungbote/trailmark-backend/internal/services"
)

// devtoken mints an access token for local testing.
func main() {
	var (
		member    = flag.String("member", "", "member id (required)")
		role      = flag.String("role", "MEMBER", "role claim")
		club      = flag.String("club", "", "club id")
		unit      = flag.String("unit", "", "unit id")
		rankClass = flag.String("rank", "", "rank class")
		region    = flag.String("region", "", "region")
		district  = flag.String("district", "", "district")
		ttl       = flag.Duration("ttl", 24*time.Hour, "token lifetime")
	)
	flag.Parse()
	_ = godotenv.Load()

	log := logger.Nop()
	p := ctxutil.Principal{
		Role:      strings.ToUpper(strings.TrimSpace(*role)),
		RankClass: *rankClass,
		Region:    *region,
		District:  *district,
	}
	var err error
	if p.MemberID, err = uuid.Parse(*member); err != nil {
		fail("invalid -member: %v", err)
	}
	if *club != "" {
		if p.ClubID, err = uuid.Parse(*club); err != nil {
			fail("invalid -club: %v", err)
		}
	}
	if *unit != "" {
		unitID, err := uuid.Parse(*unit)
		if err != nil {
			fail("invalid -unit: %v", err)
		}
		p.UnitID = &unitID
	}

	secret := envutil.String("JWT_SECRET_KEY", "defaultsecret", log)
	tok, err := services.NewTokenService(log, secret).IssueToken(p, *ttl)
	if err != nil {
		fail("issue token: %v", err)
	}
	fmt.Println(tok)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
