package movies

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	retry "github.com/appleboy/go-httpretry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const catalogTimeout = 15 * time.Second

// The catalog throttles aggressive clients; stay comfortably under its
// published request ceiling.
const (
	rateLimit = rate.Limit(40)
	rateBurst = 40
)

// Client is a movie catalog API client.
type Client struct {
	baseURL string
	apiKey  string
	http    *retry.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient creates a catalog client for the API at baseURL.
func NewClient(baseURL, apiKey string, httpClient *retry.Client, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    httpClient,
		limiter: rate.NewLimiter(rateLimit, rateBurst),
		log:     log,
	}
}

// Movies fetches one page of a category listing.
func (c *Client) Movies(ctx context.Context, category Category, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}

	var result Page
	path := fmt.Sprintf("/movie/%s?api_key=%s&page=%d", category, c.apiKey, page)
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MovieDetails fetches a single movie by id.
func (c *Client) MovieDetails(ctx context.Context, movieID int) (*Movie, error) {
	var result Movie
	path := fmt.Sprintf("/movie/%d?api_key=%s", movieID, c.apiKey)
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.DoWithContext(reqCtx, req)
	if err != nil {
		c.log.Error().Err(err).Msg("catalog request failed")
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API Error: %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse catalog response: %w", err)
	}

	return nil
}
