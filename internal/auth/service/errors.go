package service

import (
	"errors"
	"fmt"

	"github.com/maratshchur/django-auth-template/pkg/validatex"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")

	ErrMissingCredentials = errors.New("missing_credentials")
	ErrMalformedHeader    = errors.New("malformed_header")
	ErrNotBearerScheme    = fmt.Errorf("%w: scheme must be bearer", ErrMalformedHeader)
	ErrTokenExpired       = errors.New("token_expired")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrUserNotFound       = errors.New("user_not_found")

	ErrMissingToken          = errors.New("missing_token")
	ErrMalformedToken        = errors.New("malformed_token")
	ErrInvalidOrExpiredToken = errors.New("invalid_or_expired_token")
)

// ValidationError carries per-field messages for bad input.
type ValidationError = validatex.Error

const msgEmailTaken = "user with this email already exists."
