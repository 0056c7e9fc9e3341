package jwtx

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// SecretProvider hands out the symmetric secret used to sign and verify
// tokens. secretx.Source is the production implementation.
type SecretProvider interface {
	Secret(ctx context.Context) ([]byte, error)
}

// SecretFunc adapts a plain function to SecretProvider.
type SecretFunc func(ctx context.Context) ([]byte, error)

func (f SecretFunc) Secret(ctx context.Context) ([]byte, error) { return f(ctx) }

// StaticSecret returns a SecretProvider that always yields secret.
func StaticSecret(secret []byte) SecretProvider {
	return SecretFunc(func(context.Context) ([]byte, error) { return secret, nil })
}

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(ctx context.Context, claims Claims) (string, error)
}

// HS256Signer signs claims with HMAC-SHA256 using the provider's secret.
type HS256Signer struct {
	secrets SecretProvider
}

// NewSignerHS256 creates an HS256 signer backed by the given secret provider.
func NewSignerHS256(secrets SecretProvider) *HS256Signer {
	return &HS256Signer{secrets: secrets}
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HS256Signer) Sign(ctx context.Context, claims Claims) (string, error) {
	if err := claims.Validate(); err != nil {
		return "", err
	}

	secret, err := s.secrets.Secret(ctx)
	if err != nil {
		return "", fmt.Errorf("jwtx: resolve secret: %w", err)
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}
