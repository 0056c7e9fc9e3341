package http

import (
	"net/http"

	"github.com/concert/auth/internal/auth/domain"
	"github.com/concert/auth/internal/auth/service"
	"github.com/concert/auth/pkg/authsdk"
	"github.com/concert/auth/pkg/httpx"
)

// LoginHandler serves POST /api/auth/login.
type LoginHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Login
//	@Description	Exchanges an email and password for a fresh access and refresh token pair.
//	@Description	Every login opens a new session, earlier sessions stay valid.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.LoginRequest	true	"email, password"
//	@Success		200		{object}	authsdk.AuthResponse	"user_id, email, access_token, refresh_token, expires_in"
//	@Failure		400		{object}	authsdk.ErrorResponse	"error"
//	@Failure		401		{object}	authsdk.ErrorResponse	"error"
//	@Failure		429		{object}	authsdk.ErrorResponse	"error"
//	@Failure		500		{object}	authsdk.ErrorResponse	"error"
//	@Header			200		{string}	Cache-Control			"no-store"
//	@Router			/api/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	pair, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, "login", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authResponse(pair))
}

func authResponse(pair *domain.TokenPair) authsdk.AuthResponse {
	return authsdk.AuthResponse{
		UserID:       pair.UserID,
		Email:        pair.Email,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
	}
}
