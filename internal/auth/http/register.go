package http

import (
	"net/http"

	"github.com/concert/auth/internal/auth/service"
	"github.com/concert/auth/pkg/authsdk"
	"github.com/concert/auth/pkg/httpx"
)

// RegisterHandler serves POST /api/auth/register.
type RegisterHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Register
//	@Description	Creates a user and returns an access token and a refresh token.
//	@Description	The password must be at least 8 characters.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RegisterRequest	true	"email, password, name"
//	@Success		200		{object}	authsdk.AuthResponse	"user_id, email, access_token, refresh_token, expires_in"
//	@Failure		400		{object}	authsdk.ErrorResponse	"error"
//	@Failure		429		{object}	authsdk.ErrorResponse	"error"
//	@Failure		500		{object}	authsdk.ErrorResponse	"error"
//	@Header			200		{string}	Cache-Control			"no-store"
//	@Router			/api/auth/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	pair, err := h.AuthService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeServiceError(w, r, "register", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authResponse(pair))
}
