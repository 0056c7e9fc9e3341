package http

import (
	"net/http"

	"github.com/concert/auth/internal/auth/service"
	"github.com/concert/auth/pkg/authsdk"
	"github.com/concert/auth/pkg/httpx"
)

// RefreshHandler serves POST /api/auth/refresh.
type RefreshHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Refresh
//	@Description	Exchanges a refresh token for a new access token. The refresh token is not rotated.
//	@Description	With the session refresh policy a logged out refresh token is rejected.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RefreshRequest	true	"refresh_token"
//	@Success		200		{object}	authsdk.RefreshResponse	"access_token, expires_in"
//	@Failure		400		{object}	authsdk.ErrorResponse	"error"
//	@Failure		401		{object}	authsdk.ErrorResponse	"error"
//	@Failure		429		{object}	authsdk.ErrorResponse	"error"
//	@Failure		500		{object}	authsdk.ErrorResponse	"error"
//	@Header			200		{string}	Cache-Control			"no-store"
//	@Router			/api/auth/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}

	grant, err := h.AuthService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, "refresh", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.RefreshResponse{
		AccessToken: grant.AccessToken,
		ExpiresIn:   int(grant.ExpiresIn.Seconds()),
	})
}
