package authsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshBuffer is how long before the access token's exp the session
// refreshes proactively.
const refreshBuffer = 5 * time.Second

// ErrNoRefreshToken is returned when a session needs to refresh but holds no
// refresh token, for example after Logout.
var ErrNoRefreshToken = errors.New("authsdk: no refresh token available")

// Session represents an authenticated session with automatic token refresh.
// Sessions are safe for concurrent use.
type Session struct {
	client *Client
	now    func() time.Time

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time // zero when the access token's exp is unknown
}

// setTokens stores a new pair. The caller must hold the write lock, or own
// the session exclusively.
func (s *Session) setTokens(accessToken, refreshToken string) {
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.expiresAt = accessTokenExpiry(accessToken)
}

// accessTokenExpiry reads exp without verifying the signature. The client
// never holds the signing secret; the server still verifies every request.
func accessTokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Add(-refreshBuffer)
}

// getValidToken returns a valid access token, automatically refreshing if expired.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.expiresAt.IsZero() || s.now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	return s.refresh(ctx, func() bool {
		return !s.expiresAt.IsZero() && !s.now().Before(s.expiresAt)
	})
}

// refresh swaps the token pair if needed still reports true once the write
// lock is held.
func (s *Session) refresh(ctx context.Context, needed func() bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock (another goroutine may have refreshed)
	if !needed() {
		return s.accessToken, nil
	}

	if s.refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	tokens, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}
	s.setTokens(tokens.AccessToken, tokens.RefreshToken)

	return s.accessToken, nil
}

// do sends an authenticated request. An expired-token rejection triggers one
// refresh and one retry.
func (s *Session) do(ctx context.Context, method, path string, body, out any, expectedStatus int) error {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return err
	}

	resp, err := s.client.doAuthRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	err = decodeJSON(resp, out, expectedStatus)
	if !errors.Is(err, ErrTokenExpired) {
		return err
	}

	rejected := token
	token, err = s.refresh(ctx, func() bool { return s.accessToken == rejected })
	if err != nil {
		return err
	}
	resp, err = s.client.doAuthRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out, expectedStatus)
}

// Me returns the profile of the session's user.
func (s *Session) Me(ctx context.Context) (*UserResponse, error) {
	var out UserResponse
	if err := s.do(ctx, http.MethodGet, "/me", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMe applies a partial profile update and returns the new profile.
func (s *Session) UpdateMe(ctx context.Context, req UpdateUserRequest) (*UserResponse, error) {
	var out UserResponse
	if err := s.do(ctx, http.MethodPut, "/me", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh forces a token refresh regardless of the access token's expiry.
func (s *Session) Refresh(ctx context.Context) error {
	_, err := s.refresh(ctx, func() bool { return true })
	return err
}

// Logout revokes the session's refresh token and clears both tokens.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refreshToken == "" {
		return ErrNoRefreshToken
	}
	if err := s.client.Logout(ctx, s.refreshToken); err != nil {
		return err
	}

	s.accessToken = ""
	s.refreshToken = ""
	s.expiresAt = time.Time{}
	return nil
}

// AccessToken returns the current access token without checking expiration.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}
