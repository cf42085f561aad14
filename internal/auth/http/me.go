package http

import (
	"errors"
	"net/http"

	"github.com/maratshchur/django-auth-template/internal/auth/domain"
	"github.com/maratshchur/django-auth-template/internal/auth/service"
	"github.com/maratshchur/django-auth-template/pkg/authsdk"
	"github.com/maratshchur/django-auth-template/pkg/httpx"
	"github.com/maratshchur/django-auth-template/pkg/slogx"
)

// MeHandler serves the authenticated user's profile. It must sit behind
// httpx.AuthnMiddleware with a service.TokenVerifier.
type MeHandler struct {
	Users *service.UserService
}

func (h *MeHandler) principal(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	p, _ := httpx.PrincipalFromContext(r.Context())
	user, ok := p.(domain.User)
	if !ok {
		slogx.FromContext(r.Context()).Error("me handler reached without a user principal")
		authsdk.ErrInternal.WriteError(w)
		return domain.User{}, false
	}
	return user, true
}

// HandleGet returns the profile.
//
//	GET /me
//	200 {id, username, email}, 401 {"detail": ...}
func (h *MeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := h.principal(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse(user))
}

// HandlePut applies a partial profile update.
//
//	PUT /me {username?, email?}
//	200 {id, username, email}, 400 field errors, 401 {"detail": ...}
func (h *MeHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	user, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req authsdk.UpdateUserRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.Users.UpdateProfile(r.Context(), user.ID, service.ProfileUpdate{
		Email:    req.Email,
		Username: req.Username,
	})
	if err != nil {
		// The user can vanish between authentication and the update.
		if errors.Is(err, service.ErrUserNotFound) {
			writeAuthError(w, r, err)
			return
		}
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, userResponse(updated))
}

func userResponse(u domain.User) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
