package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/concert/auth/internal/auth/domain"
	"github.com/concert/auth/internal/auth/store"
	"github.com/concert/auth/pkg/idx"
	"github.com/concert/auth/pkg/jwtx"
	"github.com/concert/auth/pkg/slogx"
)

// TokenService mints access and refresh tokens. Refresh tokens are mirrored
// into the session store before they are handed out.
type TokenService struct {
	Signer     jwtx.Signer
	Sessions   store.Sessions
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// IssueAccess signs a stateless access token for the user. Nothing is
// persisted.
func (s *TokenService) IssueAccess(
	ctx context.Context,
	userID, email string,
	extra map[string]any,
) (string, jwtx.Claims, error) {
	for name := range extra {
		if jwtx.IsReserved(name) {
			return "", jwtx.Claims{}, invalid(MsgReservedClaim)
		}
	}

	claims, err := jwtx.NewAccessClaims(userID, email, extra, s.accessTTL(), s.now())
	if err != nil {
		return "", jwtx.Claims{}, invalid(err.Error())
	}

	token, err := s.Signer.Sign(ctx, claims)
	if err != nil {
		return "", jwtx.Claims{}, classify("sign access token", err)
	}
	return token, claims, nil
}

// IssueRefresh signs a refresh token and writes its session record. If the
// record cannot be written the token is dropped and an error returned.
func (s *TokenService) IssueRefresh(ctx context.Context, userID string) (string, jwtx.Claims, error) {
	l := slogx.FromContext(ctx)
	now := s.now()
	ttl := s.refreshTTL()

	claims, err := jwtx.NewRefreshClaims(userID, ttl, now)
	if err != nil {
		return "", jwtx.Claims{}, invalid(err.Error())
	}

	token, err := s.Signer.Sign(ctx, claims)
	if err != nil {
		return "", jwtx.Claims{}, classify("sign refresh token", err)
	}

	rec := domain.SessionRecord{
		ID:        idx.NewAt(now).String(),
		UserID:    userID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := s.Sessions.PutSession(ctx, token, rec, ttl); err != nil {
		l.Error("failed to persist session record",
			slog.String("user_id", userID),
			slog.String("session_id", rec.ID),
			slog.Any("error", err),
		)
		return "", jwtx.Claims{}, classify("persist session", err)
	}

	return token, claims, nil
}
