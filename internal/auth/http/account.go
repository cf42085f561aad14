package http

import (
	"net/http"

	"github.com/maratshchur/django-auth-template/internal/auth/service"
	"github.com/maratshchur/django-auth-template/pkg/authsdk"
	"github.com/maratshchur/django-auth-template/pkg/httpx"
	"github.com/maratshchur/django-auth-template/pkg/validatex"
)

type RegisterHandler struct {
	Credentials *service.CredentialService
}

// ServeHTTP creates an account.
//
//	POST /register {email, password, username?}
//	201 {id, email}, 400 field errors
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.Credentials.CreateUser(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.RegisterResponse{
		ID:    user.ID,
		Email: user.Email,
	})
}

type LoginHandler struct {
	Sessions *service.SessionService
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ServeHTTP exchanges credentials for a token pair.
//
//	POST /login {email, password}
//	200 {access_token, refresh_token}, 400 field or non_field_errors
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	// Shape errors are reported per field before any credential check.
	if err := validatex.Struct(loginInput(req)); err != nil {
		writeError(w, r, err)
		return
	}

	pair, err := h.Sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

type RefreshHandler struct {
	Sessions *service.SessionService
}

// ServeHTTP rotates a refresh token.
//
//	POST /refresh {refresh_token}
//	200 {access_token, refresh_token}, 400 {"error": ...}
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	pair, err := h.Sessions.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

type LogoutHandler struct {
	Sessions *service.SessionService
}

// ServeHTTP revokes a refresh token. Unknown tokens still succeed.
//
//	POST /logout {refresh_token}
//	200 {"success": ...}, 400 {"error": "Refresh token is required"}
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LogoutRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Sessions.Logout(r.Context(), req.RefreshToken); err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.LogoutResponse{Success: "Successfully logged out"})
}
