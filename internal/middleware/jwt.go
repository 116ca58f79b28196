// Package middleware provides the HTTP middleware of the dashboard: request
// ids, rate limiting, request metrics and bearer-token inspection.
package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"idrecon/internal/domain"
)

// Token inspection errors.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenInvalid   = errors.New("token signature invalid")
)

// TokenClaims are the claims the reconciliation backend puts into its tokens.
type TokenClaims struct {
	Name   string `json:"name,omitempty"`
	Role   string `json:"role,omitempty"`
	Domain string `json:"domain,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts the claims to the operator of a request.
func (c *TokenClaims) Principal() domain.ContextPrincipal {
	p := domain.ContextPrincipal{
		Username: c.Subject,
		Name:     c.Name,
		Role:     c.Role,
		Domain:   c.Domain,
	}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p
}

// TokenInspector reads backend bearer tokens. With a secret it verifies the
// HS256 signature; without one it only decodes the claims, leaving
// verification to the backend.
type TokenInspector struct {
	secret []byte
	now    func() time.Time
}

// NewTokenInspector creates an inspector. secret may be empty.
func NewTokenInspector(secret string) *TokenInspector {
	ti := &TokenInspector{now: time.Now}
	if secret != "" {
		ti.secret = []byte(secret)
	}
	return ti
}

// Verifies reports whether signatures are checked.
func (ti *TokenInspector) Verifies() bool { return len(ti.secret) > 0 }

// Inspect parses tokenString and checks its expiry.
func (ti *TokenInspector) Inspect(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}

	if ti.Verifies() {
		_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			return ti.secret, nil
		},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(ti.now),
		)
		switch {
		case err == nil:
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
		default:
			return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
		}
		if claims.ExpiresAt != nil && !ti.now().Before(claims.ExpiresAt.Time) {
			return nil, ErrTokenExpired
		}
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}
	return claims, nil
}
