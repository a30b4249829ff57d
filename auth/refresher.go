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
)

const refreshTimeout = 10 * time.Second

// RefreshResult is the refresh endpoint response. Refresh is empty unless
// the server rotates refresh tokens.
type RefreshResult struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// Apply merges the result into the previous pair: the new access token is
// adopted, and the refresh token is replaced only when the server rotated it.
func (r *RefreshResult) Apply(old TokenPair) TokenPair {
	refresh := r.Refresh
	if refresh == "" {
		refresh = old.Refresh
	}
	return TokenPair{Access: r.Access, Refresh: refresh}
}

// Refresher exchanges a refresh token for a new access token with a single
// network call. It carries no retry policy of its own; deciding whether and
// when to refresh again belongs to the caller.
type Refresher struct {
	baseURL string
	http    *retry.Client
}

// NewRefresher creates a refresher for the auth server at baseURL.
func NewRefresher(baseURL string, httpClient *retry.Client) *Refresher {
	return &Refresher{baseURL: baseURL, http: httpClient}
}

// Refresh exchanges refreshToken for a new access token. A server rejection
// or unreachable network yields a *RefreshError.
func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	reqCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return nil, fmt.Errorf("failed to encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		reqCtx,
		http.MethodPost,
		r.baseURL+"/token/refresh/",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.DoWithContext(reqCtx, req)
	if err != nil {
		return nil, &RefreshError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RefreshError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RefreshError{Status: resp.StatusCode}
	}

	var result RefreshResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse refresh response: %w", err)
	}
	if result.Access == "" {
		return nil, fmt.Errorf("refresh response contained no access token")
	}

	return &result, nil
}
