package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type principalKey struct{}

// Principal is the authenticated caller as asserted by the access token.
type Principal struct {
	MemberID  uuid.UUID
	Role      string
	ClubID    uuid.UUID
	UnitID    *uuid.UUID
	RankClass string
	Region    string
	District  string
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func GetPrincipal(ctx context.Context) *Principal {
	if ctx == nil {
		return nil
	}
	if p, ok := ctx.Value(principalKey{}).(*Principal); ok {
		return p
	}
	return nil
}
