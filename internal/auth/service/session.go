package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/maratshchur/django-auth-template/internal/auth/domain"
	"github.com/maratshchur/django-auth-template/internal/auth/store"
	"github.com/maratshchur/django-auth-template/pkg/cryptox"
	"github.com/maratshchur/django-auth-template/pkg/slogx"
)

// SessionService drives login, refresh rotation and logout.
type SessionService struct {
	Credentials *CredentialService
	Issuer      *TokenIssuer
	Store       store.Store
	Now         func() time.Time
	Metrics     *Metrics
}

// Login checks the credentials and issues a token pair.
func (s *SessionService) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	user, err := s.Credentials.VerifyCredentials(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.Metrics.login("invalid")
		}
		return domain.TokenPair{}, err
	}

	pair, err := s.Issuer.IssueTokenPair(ctx, user)
	if err != nil {
		return domain.TokenPair{}, err
	}
	s.Metrics.login("success")
	slogx.FromContext(ctx).Info("user logged in", slog.String("user_id", user.ID))
	return pair, nil
}

// Refresh trades a refresh token for a new pair. The presented token is
// consumed atomically first, so of two concurrent calls at most one wins.
func (s *SessionService) Refresh(ctx context.Context, raw string) (domain.TokenPair, error) {
	if raw == "" {
		s.Metrics.refresh("missing")
		return domain.TokenPair{}, ErrMissingToken
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		s.Metrics.refresh("malformed")
		return domain.TokenPair{}, ErrMalformedToken
	}

	rec, err := s.Store.RefreshTokens().ConsumeRefreshToken(ctx, cryptox.FingerprintToken(id.String()), s.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Metrics.refresh("invalid")
			return domain.TokenPair{}, ErrInvalidOrExpiredToken
		}
		return domain.TokenPair{}, err
	}

	user, err := s.Store.Users().GetUserByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Metrics.refresh("invalid")
			return domain.TokenPair{}, ErrInvalidOrExpiredToken
		}
		return domain.TokenPair{}, err
	}

	pair, err := s.Issuer.IssueTokenPair(ctx, user)
	if err != nil {
		return domain.TokenPair{}, err
	}
	s.Metrics.refresh("success")
	return pair, nil
}

// Logout revokes the refresh token if it exists. Unknown and malformed
// tokens still succeed; only an empty value is rejected.
func (s *SessionService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return ErrMissingToken
	}

	if id, err := uuid.Parse(raw); err == nil {
		if err := s.Store.RefreshTokens().DeleteRefreshToken(ctx, cryptox.FingerprintToken(id.String())); err != nil {
			return err
		}
	}
	s.Metrics.logout()
	return nil
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
