package jwtx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

var (
	// ErrInvalidToken covers malformed tokens, bad signatures, unexpected
	// algorithms and claim sets that fail Claims.Validate.
	ErrInvalidToken = errors.New("jwtx: invalid token")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// HS256Verifier validates JWTs signed using HMAC-SHA256.
type HS256Verifier struct {
	secrets SecretProvider
	leeway  time.Duration
	now     func() time.Time
}

// VerifierOption tweaks an HS256Verifier.
type VerifierOption func(*HS256Verifier)

// WithLeeway allows small clock skew when validating exp.
func WithLeeway(d time.Duration) VerifierOption {
	return func(v *HS256Verifier) { v.leeway = d }
}

// WithClock overrides the verifier's notion of now.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *HS256Verifier) { v.now = now }
}

// NewVerifierHS256 creates a verifier backed by the given secret provider.
func NewVerifierHS256(secrets SecretProvider, opts ...VerifierOption) *HS256Verifier {
	v := &HS256Verifier{secrets: secrets, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify validates the JWT string and returns its parsed Claims. Errors
// resolving the secret are returned as-is so callers can tell a
// configuration problem from a bad token.
func (v *HS256Verifier) Verify(ctx context.Context, tokenStr string) (Claims, error) {
	secret, err := v.secrets.Secret(ctx)
	if err != nil {
		return Claims{}, fmt.Errorf("jwtx: resolve secret: %w", err)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	)

	var claims Claims
	token, err := parser.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		// The signature is checked before the claims, so an expired token
		// with a forged signature still lands on ErrInvalidToken.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
