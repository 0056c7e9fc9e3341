package http

import (
	"net/http"

	"github.com/concert/auth/internal/auth/service"
	"github.com/concert/auth/pkg/authsdk"
	"github.com/concert/auth/pkg/httpx"
)

// LogoutHandler serves POST /api/auth/logout. Unknown, invalid and already
// revoked tokens all return 200 so the endpoint cannot be used to probe
// tokens.
type LogoutHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Logout
//	@Description	Revokes a refresh token by deleting its session record.
//	@Description	Always succeeds, even for unknown or missing tokens.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.LogoutRequest	false	"token"
//	@Success		200		{object}	authsdk.MessageResponse	"message"
//	@Failure		400		{object}	authsdk.ErrorResponse	"error"
//	@Failure		429		{object}	authsdk.ErrorResponse	"error"
//	@Router			/api/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LogoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.AuthService.Logout(r.Context(), req.Token)

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "Logged out successfully"})
}
