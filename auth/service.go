package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	retry "github.com/appleboy/go-httpretry"
	"github.com/rs/zerolog"
)

// Timeout configuration for the direct (unauthenticated) auth calls.
const (
	loginTimeout  = 10 * time.Second
	verifyTimeout = 10 * time.Second
)

// Credentials are the login inputs.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Role is a role attached to a user profile.
type Role struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Permission is a permission attached to a user profile.
type Permission struct {
	ID       int    `json:"id"`
	Codename string `json:"codename"`
}

// UserProfile is the authenticated user's profile. It is fetched from the
// server and never mutated locally.
type UserProfile struct {
	ID          int          `json:"id"`
	Username    string       `json:"username"`
	Email       string       `json:"email"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	IsActive    bool         `json:"is_active"`
	Roles       []Role       `json:"roles"`
	Permissions []Permission `json:"permissions"`
}

// Registration are the sign-up inputs.
type Registration struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RePassword string `json:"re_password"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
}

// RegistrationResult is the created account as returned by the server.
type RegistrationResult struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Service exposes the auth API operations. Login and Verify go straight to
// the server so they never depend on an existing session; CurrentUser and
// Register go through the request client.
type Service struct {
	baseURL   string
	http      *retry.Client
	refresher *Refresher
	client    *Client
	log       zerolog.Logger
}

// NewService creates an auth service for the server at baseURL.
func NewService(
	baseURL string,
	httpClient *retry.Client,
	refresher *Refresher,
	client *Client,
	log zerolog.Logger,
) *Service {
	return &Service{
		baseURL:   baseURL,
		http:      httpClient,
		refresher: refresher,
		client:    client,
		log:       log,
	}
}

// Login exchanges credentials for a token pair. A rejection yields an
// *AuthError carrying the server's detail message when it sends one.
func (s *Service) Login(ctx context.Context, creds Credentials) (*TokenPair, error) {
	reqCtx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	body, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		reqCtx,
		http.MethodPost,
		s.baseURL+"/token/",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.DoWithContext(reqCtx, req)
	if err != nil {
		s.log.Error().Err(err).Msg("login request failed")
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read login response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &AuthError{Status: resp.StatusCode, Detail: errorDetail(respBody)}
	}

	var tokens TokenPair
	if err := json.Unmarshal(respBody, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse login response: %w", err)
	}

	return &tokens, nil
}

// Verify probes whether the access token is still accepted by the server.
// The response payload carries no information callers need, so only the
// success/failure outcome is reported.
func (s *Service) Verify(ctx context.Context, accessToken string) error {
	reqCtx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"token": accessToken})
	if err != nil {
		return fmt.Errorf("failed to encode verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		reqCtx,
		http.MethodPost,
		s.baseURL+"/token/verify/",
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("failed to create verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.DoWithContext(reqCtx, req)
	if err != nil {
		return fmt.Errorf("verify request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &VerifyError{Status: resp.StatusCode}
	}

	return nil
}

// RefreshToken exchanges a refresh token for a new access token.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	return s.refresher.Refresh(ctx, refreshToken)
}

// CurrentUser fetches the authenticated user's profile.
func (s *Service) CurrentUser(ctx context.Context) (*UserProfile, error) {
	var user UserProfile
	if err := s.client.Get(ctx, "/users/me/", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Register creates a new account. The request is unauthenticated.
func (s *Service) Register(ctx context.Context, reg Registration) (*RegistrationResult, error) {
	var result RegistrationResult
	if err := s.client.Post(ctx, "/auth/users/", reg, &result, WithoutAuth()); err != nil {
		return nil, err
	}
	return &result, nil
}
