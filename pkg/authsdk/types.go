package authsdk

// ============================================================================
// Requests
// ============================================================================

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body of POST /api/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest is the body of POST /api/auth/logout.
type LogoutRequest struct {
	Token string `json:"token"`
}

// ============================================================================
// Responses
// ============================================================================

// AuthResponse is returned by register and login.
type AuthResponse struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`

	// ExpiresIn is the access token lifetime in seconds
	ExpiresIn int `json:"expires_in"`
}

// RefreshResponse is returned by refresh. The refresh token is not rotated.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// VerifyResponse is returned by verify.
type VerifyResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`

	// ExpiresAt is the access token expiry as a unix timestamp
	ExpiresAt int64 `json:"expires_at"`
}

// MessageResponse is returned by logout.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the wire form of APIError.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ============================================================================
// Health
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains the status of critical dependencies (readyz only)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// SessionStore indicates the session store connection status
	SessionStore string `json:"session_store"`

	// Secret indicates whether the signing secret could be resolved
	Secret string `json:"secret"`
}
