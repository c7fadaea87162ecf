package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainclub "github.com/yungbote/trailmark-backend/internal/domain/club"
	"github.com/yungbote/trailmark-backend/internal/platform/ctxutil"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

const tokenIssuer = "trailmark"

// JWTClaims is the access token payload. Subject holds the member id.
type JWTClaims struct {
	Role      string `json:"role"`
	ClubID    string `json:"club_id,omitempty"`
	UnitID    string `json:"unit_id,omitempty"`
	RankClass string `json:"rank_class,omitempty"`
	Region    string `json:"region,omitempty"`
	District  string `json:"district,omitempty"`
	jwt.RegisteredClaims
}

type TokenService interface {
	IssueToken(p ctxutil.Principal, ttl time.Duration) (string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type tokenService struct {
	log          *logger.Logger
	jwtSecretKey []byte
	now          func() time.Time
}

func NewTokenService(log *logger.Logger, jwtSecretKey string) TokenService {
	return &tokenService{
		log:          log.With("service", "TokenService"),
		jwtSecretKey: []byte(jwtSecretKey),
		now:          time.Now,
	}
}

func (ts *tokenService) IssueToken(p ctxutil.Principal, ttl time.Duration) (string, error) {
	if p.MemberID == uuid.Nil {
		return "", fmt.Errorf("issue token: member id required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := ts.now()
	claims := JWTClaims{
		Role:      p.Role,
		RankClass: p.RankClass,
		Region:    p.Region,
		District:  p.District,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   p.MemberID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if p.ClubID != uuid.Nil {
		claims.ClubID = p.ClubID.String()
	}
	if p.UnitID != nil {
		claims.UnitID = p.UnitID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ts.jwtSecretKey)
}

func (ts *tokenService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if strings.TrimSpace(tokenString) == "" {
		return ctx, fmt.Errorf("missing token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return ts.jwtSecretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(ts.now),
	)
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, fmt.Errorf("invalid or expired token")
	}
	p, err := principalFromClaims(claims)
	if err != nil {
		return ctx, err
	}
	return ctxutil.WithPrincipal(ctx, p), nil
}

func principalFromClaims(c *JWTClaims) (*ctxutil.Principal, error) {
	memberID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid member id in token: %w", err)
	}
	if !domainclub.IsRole(c.Role) {
		return nil, fmt.Errorf("unknown role %q in token", c.Role)
	}
	p := &ctxutil.Principal{
		MemberID:  memberID,
		Role:      c.Role,
		RankClass: c.RankClass,
		Region:    c.Region,
		District:  c.District,
	}
	if c.ClubID != "" {
		if p.ClubID, err = uuid.Parse(c.ClubID); err != nil {
			return nil, fmt.Errorf("invalid club id in token: %w", err)
		}
	}
	if c.UnitID != "" {
		unitID, err := uuid.Parse(c.UnitID)
		if err != nil {
			return nil, fmt.Errorf("invalid unit id in token: %w", err)
		}
		p.UnitID = &unitID
	}
	return p, nil
}
