package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/maratshchur/django-auth-template/pkg/httpx"
	"github.com/maratshchur/django-auth-template/pkg/validatex"
)

// Keys under which single-message errors are reported.
const (
	KeyError          = "error"
	KeyDetail         = "detail"
	KeyNonFieldErrors = validatex.NonFieldErrors
)

// ============================================================================
// APIError - error type shared by the server and the SDK client
// ============================================================================

// APIError is an error response from the auth service. The server uses it to
// write responses and the SDK returns it for every non-success status.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Key is the JSON key the message is reported under ("error", "detail"
	// or "non_field_errors")
	Key string `json:"-"`

	// Message is the human-readable message
	Message string `json:"-"`

	// Fields holds per-field messages for validation failures
	Fields map[string][]string `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if len(e.Fields) > 0 && e.Key != KeyNonFieldErrors {
		return fmt.Sprintf("%d: %s", e.StatusCode, (&validatex.Error{Fields: e.Fields}).Error())
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Is reports whether target is an APIError with the same status and message,
// so errors.Is(err, authsdk.ErrTokenExpired) works on parsed responses.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode && e.Message == t.Message
}

// WriteError writes this error to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	if len(e.Fields) > 0 {
		httpx.WriteJSON(w, e.StatusCode, e.Fields)
		return
	}
	httpx.WriteJSON(w, e.StatusCode, map[string]string{e.Key: e.Message})
}

// NewValidationError builds a 400 APIError from per-field messages.
func NewValidationError(fields map[string][]string) *APIError {
	e := &APIError{
		StatusCode: http.StatusBadRequest,
		Fields:     fields,
	}
	if msgs := fields[KeyNonFieldErrors]; len(msgs) > 0 {
		e.Key = KeyNonFieldErrors
		e.Message = msgs[0]
	} else {
		e.Message = (&validatex.Error{Fields: fields}).Error()
	}
	return e
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	// ErrCredentialsNotProvided is returned when /me is called without an
	// Authorization header.
	ErrCredentialsNotProvided = &APIError{
		StatusCode: http.StatusUnauthorized,
		Key:        KeyDetail,
		Message:    "Authentication credentials were not provided",
	}

	// ErrNotBearer is returned when the Authorization scheme is not Bearer.
	ErrNotBearer = &APIError{
		StatusCode: http.StatusUnauthorized,
		Key:        KeyDetail,
		Message:    "Authorization header must start with Bearer",
	}

	// ErrInvalidHeaderFormat is returned when the Authorization header is not
	// exactly "Bearer <token>".
	ErrInvalidHeaderFormat = &APIError{
		StatusCode: http.StatusUnauthorized,
		Key:        KeyDetail,
		Message:    "Invalid Authorization header format",
	}

	// ErrTokenExpired is returned for a correctly signed but expired access token.
	ErrTokenExpired = &APIError{
		StatusCode: http.StatusUnauthorized,
		Key:        KeyDetail,
		Message:    "Token has expired",
	}

	// ErrInvalidToken is returned for any other access token failure.
	ErrInvalidToken = &APIError{
		StatusCode: http.StatusUnauthorized,
		Key:        KeyDetail,
		Message:    "Invalid token",
	}

	// ErrUserNotFound is returned when the token subject no longer exists.
	ErrUserNotFound = &APIError{
		StatusCode: http.StatusUnauthorized,
		Key:        KeyDetail,
		Message:    "User not found",
	}

	// ErrRefreshTokenRequired is returned by /refresh and /logout without a token.
	ErrRefreshTokenRequired = &APIError{
		StatusCode: http.StatusBadRequest,
		Key:        KeyError,
		Message:    "Refresh token is required",
	}

	// ErrInvalidRefreshTokenFormat is returned when the refresh token is not a UUID.
	ErrInvalidRefreshTokenFormat = &APIError{
		StatusCode: http.StatusBadRequest,
		Key:        KeyError,
		Message:    "Invalid refresh token format",
	}

	// ErrInvalidOrExpiredRefreshToken is returned for unknown, expired or
	// already used refresh tokens.
	ErrInvalidOrExpiredRefreshToken = &APIError{
		StatusCode: http.StatusBadRequest,
		Key:        KeyError,
		Message:    "Invalid or expired refresh token",
	}

	// ErrInvalidLogin is returned by /login for any credential failure.
	ErrInvalidLogin = NewValidationError(map[string][]string{
		KeyNonFieldErrors: {"Invalid email or password"},
	})

	// ErrInvalidJSON is returned when a request body cannot be decoded.
	ErrInvalidJSON = NewValidationError(map[string][]string{
		KeyNonFieldErrors: {"Invalid JSON body"},
	})

	// ErrInternal is returned for unexpected server failures.
	ErrInternal = &APIError{
		StatusCode: http.StatusInternalServerError,
		Key:        KeyError,
		Message:    "Internal server error",
	}
)

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns an error response body into an *APIError.
// Returns nil if the response indicates success (2xx status code).
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// {"error": "..."} or {"detail": "..."}
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case errResp.Detail != "":
			return &APIError{StatusCode: resp.StatusCode, Key: KeyDetail, Message: errResp.Detail}
		case errResp.Error != "":
			return &APIError{StatusCode: resp.StatusCode, Key: KeyError, Message: errResp.Error}
		}
	}

	// {"field": ["msg", ...]}
	var fields map[string][]string
	if err := json.Unmarshal(body, &fields); err == nil && len(fields) > 0 {
		e := NewValidationError(fields)
		e.StatusCode = resp.StatusCode
		return e
	}

	// Fallback: create generic error from status code
	return &APIError{
		StatusCode: resp.StatusCode,
		Key:        KeyError,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
