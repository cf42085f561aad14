package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/maratshchur/django-auth-template/internal/auth/domain"
	"github.com/maratshchur/django-auth-template/internal/auth/store"
	"github.com/maratshchur/django-auth-template/pkg/cryptox"
	"github.com/maratshchur/django-auth-template/pkg/idx"
	"github.com/maratshchur/django-auth-template/pkg/slogx"
	"github.com/maratshchur/django-auth-template/pkg/validatex"
)

// CredentialService owns user records and password checks.
type CredentialService struct {
	Store store.Store
	Now   func() time.Time
}

type newUserInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Username string `json:"username" validate:"max=150"`
}

// CreateUser validates the input, hashes the password and stores a new user.
// Bad input and duplicate emails come back as *ValidationError.
func (s *CredentialService) CreateUser(ctx context.Context, email, password, username string) (domain.User, error) {
	in := newUserInput{Email: domain.NormalizeEmail(email), Password: password, Username: username}
	if err := validatex.Struct(in); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	now := s.now()
	user := domain.User{
		ID:           idx.NewAt(now).String(),
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, validatex.New("email", msgEmailTaken)
		}
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user registered", slog.String("user_id", user.ID))
	return user, nil
}

// VerifyCredentials returns the user for a matching email/password pair.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials, and
// both pay for one argon2 verification.
func (s *CredentialService) VerifyCredentials(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = cryptox.VerifyPassword(password, cryptox.DummyHash())
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *CredentialService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
