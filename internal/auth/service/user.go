package service

import (
	"context"
	"errors"
	"time"

	"github.com/maratshchur/django-auth-template/internal/auth/domain"
	"github.com/maratshchur/django-auth-template/internal/auth/store"
	"github.com/maratshchur/django-auth-template/pkg/validatex"
)

type UserService struct {
	Store store.Store
	Now   func() time.Time
}

// ProfileUpdate is a partial update; nil fields are left alone.
type ProfileUpdate struct {
	Email    *string
	Username *string
}

// GetProfile fetches a user by id.
func (s *UserService) GetProfile(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return user, err
}

// UpdateProfile applies upd inside a transaction and returns the new state.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (domain.User, error) {
	verr := &ValidationError{}
	if upd.Email != nil {
		email := domain.NormalizeEmail(*upd.Email)
		upd.Email = &email
		mergeFieldErrors(verr, validatex.Var("email", email, "required,email,max=254"))
	}
	if upd.Username != nil {
		mergeFieldErrors(verr, validatex.Var("username", *upd.Username, "max=150"))
	}
	if len(verr.Fields) > 0 {
		return domain.User{}, verr
	}

	var out domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if upd.Email != nil {
			user.Email = *upd.Email
		}
		if upd.Username != nil {
			user.Username = *upd.Username
		}
		user.UpdatedAt = s.now()

		if err := tx.Users().UpdateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return validatex.New("email", msgEmailTaken)
			}
			return err
		}
		out = user
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return out, nil
}

func mergeFieldErrors(dst *ValidationError, err error) {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return
	}
	for field, msgs := range ve.Fields {
		for _, msg := range msgs {
			dst.Add(field, msg)
		}
	}
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
