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
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const requestTimeout = 15 * time.Second

// Client issues JSON requests to the auth API, attaching the stored bearer
// token when authentication is required. A 401 on an authenticated request
// triggers exactly one refresh-and-retry; the retried request has refresh
// suppressed, bounding the recursion at depth one.
type Client struct {
	baseURL   string
	http      *retry.Client
	store     TokenStore
	refresher *Refresher
	log       zerolog.Logger
}

// NewClient creates an authenticated request client.
func NewClient(
	baseURL string,
	httpClient *retry.Client,
	store TokenStore,
	refresher *Refresher,
	log zerolog.Logger,
) *Client {
	return &Client{
		baseURL:   baseURL,
		http:      httpClient,
		store:     store,
		refresher: refresher,
		log:       log,
	}
}

type requestOptions struct {
	requireAuth bool
	skipRefresh bool
}

// RequestOption adjusts a single request.
type RequestOption func(*requestOptions)

// WithoutAuth issues the request without an Authorization header and without
// the 401 refresh-and-retry behavior.
func WithoutAuth() RequestOption {
	return func(o *requestOptions) { o.requireAuth = false }
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.request(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post issues a POST request with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.request(ctx, http.MethodPost, path, body, out, opts...)
}

// Put issues a PUT request with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.request(ctx, http.MethodPut, path, body, out, opts...)
}

// Delete issues a DELETE request and decodes the response into out.
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.request(ctx, http.MethodDelete, path, nil, out, opts...)
}

func (c *Client) request(
	ctx context.Context,
	method, path string,
	body, out any,
	opts ...RequestOption,
) error {
	options := requestOptions{requireAuth: true}
	for _, opt := range opts {
		opt(&options)
	}
	return c.do(ctx, method, path, body, out, options)
}

func (c *Client) do(
	ctx context.Context,
	method, path string,
	body, out any,
	options requestOptions,
) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	if options.requireAuth {
		tokens, err := c.store.Get(ctx)
		if err != nil {
			return err
		}
		if tokens == nil {
			return ErrAuthRequired
		}
		req.Header.Set("Authorization", "Bearer "+tokens.Access)
	}

	resp, err := c.http.DoWithContext(reqCtx, req)
	if err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("API request failed")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && options.requireAuth && !options.skipRefresh {
		return c.refreshAndRetry(ctx, method, path, body, out, options)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Detail: errorDetail(respBody)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// refreshAndRetry exchanges the stored refresh token for a new access token,
// persists the merged pair, and re-issues the original request once. A
// failed refresh clears the store: the session is over.
func (c *Client) refreshAndRetry(
	ctx context.Context,
	method, path string,
	body, out any,
	options requestOptions,
) error {
	tokens, err := c.store.Get(ctx)
	if err != nil {
		return err
	}
	if tokens == nil || tokens.Refresh == "" {
		return ErrAuthRequired
	}

	c.log.Debug().Str("path", path).Msg("access token rejected, refreshing")

	result, err := c.refresher.Refresh(ctx, tokens.Refresh)
	if err != nil {
		if clearErr := c.store.Clear(ctx); clearErr != nil {
			c.log.Error().Err(clearErr).Msg("failed to clear tokens after refresh failure")
		}
		return &SessionExpiredError{Err: err}
	}

	if err := c.store.Set(ctx, result.Apply(*tokens)); err != nil {
		if clearErr := c.store.Clear(ctx); clearErr != nil {
			c.log.Error().Err(clearErr).Msg("failed to clear tokens after store failure")
		}
		return &SessionExpiredError{Err: err}
	}

	options.skipRefresh = true
	return c.do(ctx, method, path, body, out, options)
}

// errorDetail extracts the server "detail" message from an error body, if any.
func errorDetail(body []byte) string {
	var errResp struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return ""
	}
	return errResp.Detail
}
