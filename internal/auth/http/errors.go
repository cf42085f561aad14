package http

import (
	"errors"
	"net/http"

	"github.com/maratshchur/django-auth-template/internal/auth/service"
	"github.com/maratshchur/django-auth-template/pkg/authsdk"
	"github.com/maratshchur/django-auth-template/pkg/httpx"
	"github.com/maratshchur/django-auth-template/pkg/slogx"
)

// writeError maps a service error to its response. Anything unrecognised is
// logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		authsdk.NewValidationError(ve.Fields).WriteError(w)
	case errors.Is(err, httpx.ErrBadJSON):
		authsdk.ErrInvalidJSON.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidLogin.WriteError(w)
	case errors.Is(err, service.ErrMissingToken):
		authsdk.ErrRefreshTokenRequired.WriteError(w)
	case errors.Is(err, service.ErrMalformedToken):
		authsdk.ErrInvalidRefreshTokenFormat.WriteError(w)
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		authsdk.ErrInvalidOrExpiredRefreshToken.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		authsdk.ErrInternal.WriteError(w)
	}
}

// writeAuthError renders a bearer authentication failure with its
// WWW-Authenticate challenge.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		apiErr    *authsdk.APIError
		challenge = "invalid_token"
	)

	// ErrNotBearerScheme wraps ErrMalformedHeader, so it goes first.
	switch {
	case errors.Is(err, service.ErrMissingCredentials):
		apiErr, challenge = authsdk.ErrCredentialsNotProvided, ""
	case errors.Is(err, service.ErrNotBearerScheme):
		apiErr, challenge = authsdk.ErrNotBearer, "invalid_request"
	case errors.Is(err, service.ErrMalformedHeader):
		apiErr, challenge = authsdk.ErrInvalidHeaderFormat, "invalid_request"
	case errors.Is(err, service.ErrTokenExpired):
		apiErr = authsdk.ErrTokenExpired
	case errors.Is(err, service.ErrInvalidToken):
		apiErr = authsdk.ErrInvalidToken
	case errors.Is(err, service.ErrUserNotFound):
		apiErr = authsdk.ErrUserNotFound
	default:
		slogx.FromContext(r.Context()).Error("authentication failed unexpectedly", "err", err)
		authsdk.ErrInternal.WriteError(w)
		return
	}

	httpx.WriteBearerChallenge(w, challenge)
	apiErr.WriteError(w)
}
