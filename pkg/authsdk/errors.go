package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/concert/auth/pkg/httpx"
)

// APIError is the error body every endpoint returns: {"error": "..."}. The
// server writes it with WriteError and the client decodes non-2xx responses
// into it.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Message is shown to the caller as-is
	Message string `json:"error"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// WriteError writes the error as a JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, e)
}

// NewAPIError creates an APIError.
func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{StatusCode: statusCode, Message: message}
}

// Predefined errors for conditions outside the auth operations themselves.
var (
	ErrRouteNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Message:    "Route not found",
	}

	ErrInvalidBody = &APIError{
		StatusCode: http.StatusBadRequest,
		Message:    "Invalid request body",
	}

	ErrInternal = &APIError{
		StatusCode: http.StatusInternalServerError,
		Message:    "Internal server error",
	}
)

// parseErrorResponse turns a non-2xx response into an *APIError. Bodies that
// are not in the expected shape keep the status with the HTTP status text.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
}
