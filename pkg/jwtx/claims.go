package jwtx

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/concert/auth/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants. Services may override them through config.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = time.Hour

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenType tags a claim set as one of the two token variants we issue.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// reservedClaims can never be supplied through Claims.Extra.
var reservedClaims = map[string]struct{}{
	"iss":   {},
	"sub":   {},
	"aud":   {},
	"exp":   {},
	"nbf":   {},
	"iat":   {},
	"jti":   {},
	"email": {},
	"type":  {},
}

// IsReserved reports whether name is a claim Extra may not set.
func IsReserved(name string) bool {
	_, ok := reservedClaims[name]
	return ok
}

// Claims is the claim set carried by both access and refresh tokens. The
// Type field tags the variant, Extra holds caller supplied claims which are
// flattened into the top level of the JWT payload.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the authenticated user, access tokens only.
	Email string `json:"email,omitempty"`

	// Type is either "access" or "refresh".
	Type TokenType `json:"type"`

	// Extra claims, access tokens only.
	Extra map[string]any `json:"-"`
}

// claimsJSON has the same fields as Claims but none of its methods, so the
// codec below can lean on encoding/json for the fixed fields.
type claimsJSON Claims

// NewAccessClaims builds and validates an access token claim set.
func NewAccessClaims(
	subject, email string,
	extra map[string]any,
	ttl time.Duration,
	now time.Time,
) (Claims, error) {
	c := Claims{
		RegisteredClaims: newRegistered(subject, ttl, now),
		Email:            email,
		Type:             TokenTypeAccess,
	}
	if len(extra) > 0 {
		c.Extra = maps.Clone(extra)
	}

	if err := c.Validate(); err != nil {
		return Claims{}, err
	}
	return c, nil
}

// NewRefreshClaims builds and validates a refresh token claim set.
func NewRefreshClaims(subject string, ttl time.Duration, now time.Time) (Claims, error) {
	c := Claims{
		RegisteredClaims: newRegistered(subject, ttl, now),
		Type:             TokenTypeRefresh,
	}

	if err := c.Validate(); err != nil {
		return Claims{}, err
	}
	return c, nil
}

func newRegistered(subject string, ttl time.Duration, now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        NewJTI(),
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim. It keeps
// two tokens minted for the same user in the same second distinct.
func NewJTI() string {
	jti, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		panic(fmt.Sprintf("jwtx: failed to generate jti: %v", err))
	}
	return jti
}

// Validate enforces the required field set for the claim variant. The jwt
// parser calls it automatically after decoding, issuers call it through the
// constructors.
func (c Claims) Validate() error {
	if c.Subject == "" {
		return fmt.Errorf("%w: missing sub", ErrInvalidClaim)
	}
	if c.IssuedAt == nil || c.ExpiresAt == nil {
		return fmt.Errorf("%w: missing iat or exp", ErrInvalidClaim)
	}

	switch c.Type {
	case TokenTypeAccess:
	case TokenTypeRefresh:
		if c.Email != "" || len(c.Extra) > 0 {
			return fmt.Errorf("%w: refresh tokens carry no profile claims", ErrInvalidClaim)
		}
	default:
		return fmt.Errorf("%w: unknown token type %q", ErrInvalidClaim, c.Type)
	}

	for k := range c.Extra {
		if _, ok := reservedClaims[k]; ok {
			return fmt.Errorf("%w: extra claim %q is reserved", ErrInvalidClaim, k)
		}
	}

	return nil
}

// MarshalJSON writes the fixed claims and flattens Extra next to them.
func (c Claims) MarshalJSON() ([]byte, error) {
	fixed, err := json.Marshal(claimsJSON(c))
	if err != nil {
		return nil, err
	}
	if len(c.Extra) == 0 {
		return fixed, nil
	}

	merged := make(map[string]json.RawMessage, len(c.Extra)+6)
	for k, v := range c.Extra {
		if _, ok := reservedClaims[k]; ok {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("jwtx: encode extra claim %q: %w", k, err)
		}
		merged[k] = raw
	}

	var base map[string]json.RawMessage
	if err := json.Unmarshal(fixed, &base); err != nil {
		return nil, err
	}
	maps.Copy(merged, base)

	return json.Marshal(merged)
}

// UnmarshalJSON reads the fixed claims and collects everything else into
// Extra.
func (c *Claims) UnmarshalJSON(b []byte) error {
	var fixed claimsJSON
	if err := json.Unmarshal(b, &fixed); err != nil {
		return err
	}

	var all map[string]any
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for k := range reservedClaims {
		delete(all, k)
	}

	*c = Claims(fixed)
	c.Extra = nil
	if len(all) > 0 {
		c.Extra = all
	}
	return nil
}
