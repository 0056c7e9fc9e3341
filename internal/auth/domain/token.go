package domain

import "time"

// TokenPair is what register and login hand back: a short-lived access token
// and a refresh token backed by a session record.
type TokenPair struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration // lifetime of the access token
}

// AccessGrant is the result of a refresh: a new access token only, the
// refresh token is not rotated.
type AccessGrant struct {
	AccessToken string
	ExpiresIn   time.Duration
	IssuedAt    time.Time
}

// Verification is the claim subset exposed by the verify operation.
type Verification struct {
	Valid     bool
	UserID    string
	Email     string
	ExpiresAt time.Time
}
