package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	pathRegister = "/api/auth/register"
	pathLogin    = "/api/auth/login"
	pathRefresh  = "/api/auth/refresh"
	pathVerify   = "/api/auth/verify"
	pathLogout   = "/api/auth/logout"
)

// SDKClient is a client for the concert authentication service.
// It provides the raw endpoint calls and can create authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates an account and returns its first token pair.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.postJSON(ctx, pathRegister, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a token pair.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.postJSON(ctx, pathLogin, LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges a refresh token for a new access token.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	var out RefreshResponse
	if err := c.postJSON(ctx, pathRefresh, RefreshRequest{RefreshToken: refreshToken}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify asks the service to check an access token.
func (c *SDKClient) Verify(ctx context.Context, accessToken string) (*VerifyResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, pathVerify, nil, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})
	if err != nil {
		return nil, err
	}

	var out VerifyResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes a refresh token. The service reports success even for
// unknown tokens.
func (c *SDKClient) Logout(ctx context.Context, token string) error {
	var out MessageResponse
	return c.postJSON(ctx, pathLogout, LogoutRequest{Token: token}, &out)
}

// AuthenticateWithPassword logs in and returns a Session.
func (c *SDKClient) AuthenticateWithPassword(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return newSession(c, resp), nil
}

// AuthenticateWithRegistration registers a new account and returns a Session.
func (c *SDKClient) AuthenticateWithRegistration(ctx context.Context, email, password, name string) (*Session, error) {
	resp, err := c.Register(ctx, RegisterRequest{Email: email, Password: password, Name: name})
	if err != nil {
		return nil, err
	}
	return newSession(c, resp), nil
}

// NewSessionFromTokens creates a session from tokens obtained earlier, for
// example restored from storage.
func (c *SDKClient) NewSessionFromTokens(userID, accessToken, refreshToken string, expiresIn int) *Session {
	return &Session{
		client:       c,
		userID:       userID,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    expiryWithBuffer(expiresIn),
	}
}
