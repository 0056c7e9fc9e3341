package service

import (
	"errors"
	"fmt"

	"github.com/concert/auth/pkg/secretx"
)

// Error kinds surfaced by AuthService. The HTTP layer maps them to status
// codes with errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrDependency    = errors.New("dependency failure")
	ErrConfiguration = errors.New("configuration error")
)

// Messages returned to callers. They never say why a token was rejected.
const (
	MsgMissingRegisterFields = "Missing required fields"
	MsgPasswordTooShort      = "Password must be at least 8 characters"
	MsgMissingCredentials    = "Missing email or password"
	MsgReservedClaim         = "Extra claim uses a reserved name"
	MsgInvalidCredentials    = "Invalid credentials"
	MsgMissingRefreshToken   = "Missing refresh_token"
	MsgInvalidRefreshToken   = "Invalid refresh token"
	MsgMissingBearer         = "Missing or invalid authorization header"
	MsgInvalidToken          = "Invalid or expired token"
)

// ValidationError is a caller mistake with a message safe to show.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string        { return e.Message }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UnauthorizedError is a rejected credential or token.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string        { return e.Message }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

func invalid(msg string) error      { return &ValidationError{Message: msg} }
func unauthorized(msg string) error { return &UnauthorizedError{Message: msg} }

// classify tags an error from a collaborator. A missing secret is a
// configuration problem, anything else is a failing dependency.
func classify(op string, err error) error {
	if errors.Is(err, secretx.ErrNoSecret) {
		return fmt.Errorf("%s: %w: %w", op, ErrConfiguration, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrDependency, err)
}

// Message returns the caller-facing message carried by err, or "" when err
// has none.
func Message(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var ue *UnauthorizedError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return ""
}

func isCallerError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrUnauthorized)
}
