package domain

import "time"

// TokenPair is what login and refresh hand back: a short-lived access token
// (JWT) and an opaque single-use refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken models the stored refresh token record. Token is only
// populated when the record is freshly issued; stores never persist it.
type RefreshToken struct {
	Token     string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token is no longer usable at now.
func (t RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
