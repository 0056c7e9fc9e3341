package authsdk

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// refreshBuffer refreshes the access token this long before it expires.
const refreshBuffer = 30 * time.Second

// Session holds a token pair with automatic access token refresh. The refresh
// token stays the same for the life of the session.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	userID       string
	email        string
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

func newSession(client *SDKClient, resp *AuthResponse) *Session {
	return &Session{
		client:       client,
		userID:       resp.UserID,
		email:        resp.Email,
		accessToken:  resp.AccessToken,
		refreshToken: resp.RefreshToken,
		expiresAt:    expiryWithBuffer(resp.ExpiresIn),
	}
}

func expiryWithBuffer(expiresIn int) time.Time {
	return time.Now().Add(time.Duration(expiresIn)*time.Second - refreshBuffer)
}

// Token returns a valid access token, refreshing it first if it is about to
// expire.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock (another goroutine may have refreshed)
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	if s.refreshToken == "" {
		return "", fmt.Errorf("access token expired and no refresh token available")
	}

	resp, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	s.accessToken = resp.AccessToken
	s.expiresAt = expiryWithBuffer(resp.ExpiresIn)

	return s.accessToken, nil
}

// Verify checks the session's access token with the service.
func (s *Session) Verify(ctx context.Context) (*VerifyResponse, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.Verify(ctx, token)
}

// Logout revokes the refresh token. The session cannot refresh afterwards.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.refreshToken
	s.refreshToken = ""
	s.mu.Unlock()

	if refreshToken == "" {
		return fmt.Errorf("no refresh token to revoke")
	}
	return s.client.Logout(ctx, refreshToken)
}

// UserID returns the id of the authenticated user.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Email returns the email the session was opened with, empty for sessions
// built from stored tokens.
func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

// AccessToken returns the current access token without checking expiration.
// For most use cases, prefer Token which handles refresh automatically.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}
