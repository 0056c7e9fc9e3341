package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/concert/auth/internal/auth/service"
	"github.com/concert/auth/pkg/authsdk"
	"github.com/concert/auth/pkg/httpx"
	"github.com/concert/auth/pkg/slogx"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 64 << 10

// decodeBody reads a JSON body into v. An empty body leaves v untouched so
// the service reports the missing fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.DecodeJSON(r, maxBodyBytes, v); err != nil && !errors.Is(err, io.EOF) {
		authsdk.ErrInvalidBody.WriteError(w)
		return false
	}
	return true
}

// writeServiceError maps a service error onto a status code and message.
// Internal causes are logged, never returned.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		authsdk.NewAPIError(http.StatusBadRequest, service.Message(err)).WriteError(w)
	case errors.Is(err, service.ErrUnauthorized):
		authsdk.NewAPIError(http.StatusUnauthorized, service.Message(err)).WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error(op+" failed", slog.Any("error", err))
		authsdk.ErrInternal.WriteError(w)
	}
}
