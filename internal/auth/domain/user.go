package domain

import (
	"strings"
	"time"
)

type User struct {
	ID           string
	Email        string
	Username     string // optional, not unique
	PasswordHash string // argon2 encoded
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PrincipalID lets a User ride the request context as the authenticated
// principal.
func (u User) PrincipalID() string { return u.ID }

// NormalizeEmail lowercases the domain part of an address and trims
// surrounding space. The local part is kept as given.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
