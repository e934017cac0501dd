package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-lms-api/internal/domain"
	"github.com/go-lms-api/internal/pkg/clock"
	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the JWT payload fields. The user ID travels in the standard
// "sub" claim; there is no server-side revocation, so a token stays valid
// until ExpiresAt.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID returns the subject the token was issued for.
func (c *Claims) UserID() string { return c.Subject }

// Provider signs and verifies HS256 session tokens.
type Provider struct {
	secret []byte
	issuer string
	expiry time.Duration
	clock  clock.Clock
}

func NewProvider(secret, issuer string, expiry time.Duration, clk clock.Clock) (*Provider, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if expiry <= 0 {
		return nil, fmt.Errorf("jwt expiry must be positive, got %s", expiry)
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Provider{secret: []byte(secret), issuer: issuer, expiry: expiry, clock: clk}, nil
}

// Issue returns a signed token for userID expiring after the configured horizon.
func (p *Provider) Issue(userID string) (string, error) {
	now := p.clock.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// Verify parses tokenStr and returns its claims. Failures wrap
// domain.ErrExpiredToken when the signature is good but the token is past
// its expiry, and domain.ErrMalformedToken for everything else.
func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(p.issuer),
		jwt.WithTimeFunc(p.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", domain.ErrExpiredToken, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrMalformedToken)
	}
	return claims, nil
}
