package http

import (
	"net/http"

	"github.com/concert/auth/internal/auth/service"
	"github.com/concert/auth/pkg/authsdk"
	"github.com/concert/auth/pkg/httpx"
)

// VerifyHandler serves GET /api/auth/verify.
type VerifyHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Verify
//	@Description	Checks the bearer token's signature and expiry and returns its subject.
//	@Description	The response never says why a token was rejected.
//	@Tags			Auth
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.VerifyResponse	"valid, user_id, email, expires_at"
//	@Failure		401	{object}	authsdk.ErrorResponse	"error"
//	@Failure		500	{object}	authsdk.ErrorResponse	"error"
//	@Router			/api/auth/verify [get].
func (h *VerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	v, err := h.AuthService.Verify(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		writeServiceError(w, r, "verify", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.VerifyResponse{
		Valid:     v.Valid,
		UserID:    v.UserID,
		Email:     v.Email,
		ExpiresAt: v.ExpiresAt.Unix(),
	})
}
