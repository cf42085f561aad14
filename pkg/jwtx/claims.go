package jwtx

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes. Services inject their own values from config;
// these are what the config falls back to.
const (
	// DefaultAccessTokenTTL is deliberately short. Clients are expected to
	// refresh rather than hold long-lived bearer tokens.
	DefaultAccessTokenTTL = 30 * time.Second

	// DefaultRefreshTokenTTL is 30 days (2,592,000 seconds).
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// Claims is the access-token payload: {user_id, iat, exp}. The embedded
// registered claims only carry iat and exp; every other field is omitted on
// the wire.
type Claims struct {
	UserID string `json:"user_id"`

	jwt.RegisteredClaims
}

// NewAccessClaims builds the claims for an access token issued at now.
func NewAccessClaims(userID string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// Validate implements jwt.ClaimsValidator so the parser rejects tokens whose
// payload has no subject.
func (c Claims) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return ErrInvalidClaim
	}
	return nil
}
