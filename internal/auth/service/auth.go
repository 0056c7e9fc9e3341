package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/concert/auth/internal/auth/domain"
	"github.com/concert/auth/internal/auth/store"
	"github.com/concert/auth/pkg/cryptox"
	"github.com/concert/auth/pkg/jwtx"
	"github.com/concert/auth/pkg/slogx"
)

// MinPasswordLength is counted in characters, not bytes.
const MinPasswordLength = 8

// RefreshPolicy decides whether a refresh token also needs a live session
// record to be exchanged for an access token.
type RefreshPolicy string

const (
	// RefreshStateless accepts any refresh token with a valid signature and
	// expiry, even after logout.
	RefreshStateless RefreshPolicy = "stateless"

	// RefreshSession additionally requires the session record, so logout
	// revokes the token.
	RefreshSession RefreshPolicy = "session"
)

// ParseRefreshPolicy maps a config string to a policy.
func ParseRefreshPolicy(s string) (RefreshPolicy, error) {
	switch p := RefreshPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case RefreshStateless, RefreshSession:
		return p, nil
	case "":
		return RefreshSession, nil
	default:
		return "", fmt.Errorf("%w: unknown refresh policy %q", ErrConfiguration, s)
	}
}

// AuthService is the entry point the HTTP layer calls: register, login,
// refresh, verify and logout.
type AuthService struct {
	Tokens   *TokenService
	Verifier jwtx.Verifier
	Users    store.Users
	Sessions store.Sessions
	Policy   RefreshPolicy
	Metrics  *Metrics
}

// UserIDForEmail derives the stable user id for an email address.
func UserIDForEmail(email string) string {
	sum := md5.Sum([]byte(email))
	return "user-" + hex.EncodeToString(sum[:])[:12]
}

// Register creates a user and signs them in. Registering an email again
// replaces the stored name and password and signs in as the same user id.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (pair *domain.TokenPair, err error) {
	defer func() { s.Metrics.observeRegistration(err) }()
	l := slogx.FromContext(ctx)

	if strings.TrimSpace(email) == "" || password == "" || strings.TrimSpace(name) == "" {
		return nil, invalid(MsgMissingRegisterFields)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, invalid(MsgPasswordTooShort)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w: %w", ErrDependency, err)
	}

	user := domain.User{
		ID:           UserIDForEmail(email),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Users.PutUser(ctx, user); err != nil {
		return nil, classify("put user", err)
	}

	pair, err = s.issuePair(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	l.Info("user registered", slog.String("user_id", user.ID))
	return pair, nil
}

// Login checks the credentials against the user directory and signs the user
// in. Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (pair *domain.TokenPair, err error) {
	defer func() { s.Metrics.observeLogin(err) }()
	l := slogx.FromContext(ctx)

	if email == "" || password == "" {
		return nil, invalid(MsgMissingCredentials)
	}

	user, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Same cost as a real check.
			_ = cryptox.VerifyPassword(dummyRecord, password)
			l.Info("login failed", slog.String("reason", "unknown_email"))
			return nil, unauthorized(MsgInvalidCredentials)
		}
		return nil, classify("lookup user", err)
	}

	if !cryptox.VerifyPassword(user.PasswordHash, password) {
		l.Info("login failed", slog.String("reason", "bad_password"), slog.String("user_id", user.ID))
		return nil, unauthorized(MsgInvalidCredentials)
	}

	pair, err = s.issuePair(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	l.Info("user logged in", slog.String("user_id", user.ID))
	return pair, nil
}

// issuePair signs the access token first, then the refresh token. When the
// refresh token cannot be issued the access token is discarded.
func (s *AuthService) issuePair(ctx context.Context, userID, email string) (*domain.TokenPair, error) {
	access, _, err := s.Tokens.IssueAccess(ctx, userID, email, nil)
	if err != nil {
		return nil, err
	}

	refresh, _, err := s.Tokens.IssueRefresh(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		UserID:       userID,
		Email:        email,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.Tokens.accessTTL(),
	}, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh token
// itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (grant *domain.AccessGrant, err error) {
	defer func() { s.Metrics.observeRefresh(err) }()
	l := slogx.FromContext(ctx)

	if refreshToken == "" {
		return nil, invalid(MsgMissingRefreshToken)
	}

	claims, err := s.Verifier.Verify(ctx, refreshToken)
	if err != nil {
		if isTokenRejection(err) {
			l.Info("refresh rejected", slog.Any("error", err))
			return nil, unauthorized(MsgInvalidRefreshToken)
		}
		return nil, classify("verify refresh token", err)
	}
	if claims.Type != jwtx.TokenTypeRefresh {
		l.Info("refresh rejected", slog.String("reason", "wrong_token_type"))
		return nil, unauthorized(MsgInvalidRefreshToken)
	}

	if s.Policy != RefreshStateless {
		if _, err := s.Sessions.GetSession(ctx, refreshToken); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				l.Info("refresh rejected", slog.String("reason", "session_revoked"), slog.String("user_id", claims.Subject))
				return nil, unauthorized(MsgInvalidRefreshToken)
			}
			return nil, classify("lookup session", err)
		}
	}

	email := s.lookupEmail(ctx, claims.Subject)

	access, accessClaims, err := s.Tokens.IssueAccess(ctx, claims.Subject, email, nil)
	if err != nil {
		return nil, err
	}

	return &domain.AccessGrant{
		AccessToken: access,
		ExpiresIn:   s.Tokens.accessTTL(),
		IssuedAt:    accessClaims.IssuedAt.Time,
	}, nil
}

// lookupEmail fills the email claim on refresh. Refresh tokens carry no
// email, so it comes from the user directory when the user is known there.
func (s *AuthService) lookupEmail(ctx context.Context, userID string) string {
	if s.Users == nil {
		return ""
	}
	u, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Warn("user lookup failed during refresh",
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
		}
		return ""
	}
	return u.Email
}

// Verify checks an Authorization header value of the form "Bearer <token>".
func (s *AuthService) Verify(ctx context.Context, header string) (v *domain.Verification, err error) {
	defer func() { s.Metrics.observeVerification(err) }()

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, unauthorized(MsgMissingBearer)
	}

	claims, err := s.Verifier.Verify(ctx, token)
	if err != nil {
		if isTokenRejection(err) {
			return nil, unauthorized(MsgInvalidToken)
		}
		return nil, classify("verify token", err)
	}

	return &domain.Verification{
		Valid:     true,
		UserID:    claims.Subject,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}

// Logout deletes the session record of a refresh token. It always succeeds,
// store failures are only logged.
func (s *AuthService) Logout(ctx context.Context, token string) {
	s.Metrics.observeLogout()
	if token == "" {
		return
	}

	if err := s.Sessions.DeleteSession(ctx, token); err != nil {
		slogx.FromContext(ctx).Error("failed to delete session on logout", slog.Any("error", err))
	}
}

func isTokenRejection(err error) bool {
	return errors.Is(err, jwtx.ErrInvalidToken) ||
		errors.Is(err, jwtx.ErrExpired) ||
		errors.Is(err, jwtx.ErrInvalidClaim)
}

// dummyRecord is a well-formed password record nobody knows the password to.
var dummyRecord = func() string {
	rec, err := cryptox.HashPassword("concert-auth-timing-equaliser")
	if err != nil {
		panic(err)
	}
	return rec
}()
