package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/concert/auth/internal/auth/store"
	"github.com/concert/auth/pkg/authsdk"
	"github.com/concert/auth/pkg/httpx"
	"github.com/concert/auth/pkg/jwtx"
	"github.com/concert/auth/pkg/slogx"
)

const readyzTimeout = 2 * time.Second

// ReadyzHandler godoc
//
//	@Summary		Readiness Probe
//	@Description	Pings the session store and checks the signing secret can be resolved.
//	@Description	Returns 503 when either check fails. Failure details are logged, not returned.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	secrets jwtx.SecretProvider,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
		defer cancel()

		logger := slogx.FromContext(ctx)
		checks := &authsdk.HealthChecks{
			SessionStore: "ok",
			Secret:       "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(ctx); err != nil {
			logger.Warn("session store not ready", slog.Any("error", err))
			checks.SessionStore = "error"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if _, err := secrets.Secret(ctx); err != nil {
			logger.Warn("signing secret not ready", slog.Any("error", err))
			checks.Secret = "error"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
