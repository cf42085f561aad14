package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/maratshchur/django-auth-template/internal/auth/domain"
	"github.com/maratshchur/django-auth-template/internal/auth/store"
	"github.com/maratshchur/django-auth-template/pkg/cryptox"
	"github.com/maratshchur/django-auth-template/pkg/jwtx"
)

// TokenIssuer mints access tokens and persists refresh tokens.
type TokenIssuer struct {
	Signer     jwtx.Signer
	Store      store.Store
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
	Metrics    *Metrics
}

// IssueAccessToken signs {user_id, iat, exp} for user.
func (s *TokenIssuer) IssueAccessToken(user domain.User) (string, error) {
	token, err := s.Signer.Sign(jwtx.NewAccessClaims(user.ID, s.accessTTL(), s.now()))
	if err != nil {
		return "", err
	}
	s.Metrics.tokenIssued("access")
	return token, nil
}

// IssueRefreshToken stores a fresh random UUID for user. The returned record
// is the only place the raw token appears.
func (s *TokenIssuer) IssueRefreshToken(ctx context.Context, user domain.User) (domain.RefreshToken, error) {
	raw, err := uuid.NewRandom()
	if err != nil {
		return domain.RefreshToken{}, err
	}

	now := s.now()
	token := raw.String()
	rt := domain.RefreshToken{
		Token:     token,
		TokenHash: cryptox.FingerprintToken(token),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.refreshTTL()),
	}
	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, rt); err != nil {
		return domain.RefreshToken{}, err
	}
	s.Metrics.tokenIssued("refresh")
	return rt, nil
}

// IssueTokenPair is the single place token pairs are built.
func (s *TokenIssuer) IssueTokenPair(ctx context.Context, user domain.User) (domain.TokenPair, error) {
	access, err := s.IssueAccessToken(user)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.IssueRefreshToken(ctx, user)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh.Token}, nil
}

func (s *TokenIssuer) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *TokenIssuer) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

func (s *TokenIssuer) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
