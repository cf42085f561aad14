package service

import (
	"context"
	"errors"
	"strings"

	"github.com/maratshchur/django-auth-template/internal/auth/domain"
	"github.com/maratshchur/django-auth-template/internal/auth/store"
	"github.com/maratshchur/django-auth-template/pkg/httpx"
	"github.com/maratshchur/django-auth-template/pkg/idx"
	"github.com/maratshchur/django-auth-template/pkg/jwtx"
)

// TokenVerifier resolves an Authorization header to the user it names.
type TokenVerifier struct {
	Verifier jwtx.Verifier
	Store    store.Store
}

var _ httpx.Authenticator = (*TokenVerifier)(nil)

// Verify checks the header, the token and the subject, in that order.
func (s *TokenVerifier) Verify(ctx context.Context, authorization string) (domain.User, error) {
	if authorization == "" {
		return domain.User{}, ErrMissingCredentials
	}

	parts := strings.Fields(authorization)
	if len(parts) != 2 {
		return domain.User{}, ErrMalformedHeader
	}
	if !strings.EqualFold(parts[0], "bearer") {
		return domain.User{}, ErrNotBearerScheme
	}

	claims, err := s.Verifier.Verify(parts[1])
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return domain.User{}, ErrTokenExpired
		}
		return domain.User{}, ErrInvalidToken
	}

	// A well-signed token naming something other than a user id is still
	// not a token this service issued.
	if _, err := idx.Parse(claims.UserID); err != nil {
		return domain.User{}, ErrInvalidToken
	}

	user, err := s.Store.Users().GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// Authenticate adapts Verify to httpx.AuthnMiddleware.
func (s *TokenVerifier) Authenticate(ctx context.Context, authorization string) (httpx.Principal, error) {
	user, err := s.Verify(ctx, authorization)
	if err != nil {
		return nil, err
	}
	return user, nil
}
