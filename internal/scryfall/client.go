package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.scryfall.com"
	rateLimitDelay = 100 * time.Millisecond // minimum spacing between requests
	requestTimeout = 30 * time.Second
	maxAttempts    = 4
	initialBackoff = 1 * time.Second
	maxBackoff     = 16 * time.Second
)

// Client is a Scryfall API client with rate limiting and retry.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
	backoff     time.Duration
}

// ClientOptions configures the Scryfall client.
type ClientOptions struct {
	// BaseURL overrides the API base, used by tests.
	BaseURL string

	// Timeout for HTTP requests (default: 30 seconds).
	Timeout time.Duration

	// HTTPClient allows a custom HTTP client.
	HTTPClient *http.Client
}

// NewClient creates a new Scryfall API client.
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = defaultBaseURL
	}
	if options.Timeout == 0 {
		options.Timeout = requestTimeout
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.Timeout}
	}

	return &Client{
		baseURL:    options.BaseURL,
		httpClient: httpClient,
		// 1 request per 100ms = 10 req/sec
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDelay), 1),
		userAgent:   "preconroi/1.0",
		backoff:     initialBackoff,
	}
}

// SearchCards performs a full-text search for cards.
func (c *Client) SearchCards(ctx context.Context, query string) (*SearchResult, error) {
	u := fmt.Sprintf("%s/cards/search?q=%s", c.baseURL, url.QueryEscape(query))

	var result SearchResult
	if err := c.doRequest(ctx, u, &result); err != nil {
		if IsNotFound(err) {
			// Scryfall returns 404 for searches with no matches.
			return &SearchResult{Object: "list", Data: []Card{}}, nil
		}
		return nil, fmt.Errorf("failed to search cards with query %q: %w", query, err)
	}

	return &result, nil
}

// GetBulkData retrieves bulk data download information.
func (c *Client) GetBulkData(ctx context.Context) (*BulkDataList, error) {
	u := fmt.Sprintf("%s/bulk-data", c.baseURL)

	var bulkData BulkDataList
	if err := c.doRequest(ctx, u, &bulkData); err != nil {
		return nil, fmt.Errorf("failed to get bulk data: %w", err)
	}

	return &bulkData, nil
}

// doRequest performs a GET request with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, url string, result interface{}) error {
	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt < maxAttempts; attempt++ {
		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)

			// Retry on network errors
			if attempt < maxAttempts-1 {
				time.Sleep(backoff)
				backoff = minDuration(backoff*2, maxBackoff)
				continue
			}
			return lastErr
		}

		retry, err := c.handleResponse(resp, url, result)
		if err == nil {
			return nil
		}
		if !retry || attempt == maxAttempts-1 {
			return err
		}

		lastErr = err
		time.Sleep(backoff)
		backoff = minDuration(backoff*2, maxBackoff)
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// handleResponse consumes one HTTP response. It reports whether the failure
// is retryable (429 or server-side 5xx).
func (c *Client) handleResponse(resp *http.Response, url string, result interface{}) (retry bool, err error) {
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return false, fmt.Errorf("failed to read response body: %w", err)
		}
		if err := json.Unmarshal(body, result); err != nil {
			return false, fmt.Errorf("failed to parse JSON response: %w", err)
		}
		return false, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		return true, fmt.Errorf("rate limited (HTTP 429)")

	case resp.StatusCode == http.StatusNotFound:
		return false, &NotFoundError{URL: url}

	case resp.StatusCode >= 500:
		body, _ := io.ReadAll(resp.Body)
		return true, fmt.Errorf("server error (HTTP %d): %s", resp.StatusCode, string(body))

	default:
		body, _ := io.ReadAll(resp.Body)

		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Details != "" {
			apiErr.Status = resp.StatusCode
			return false, &apiErr
		}

		return false, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}
}

// minDuration returns the smaller of two durations.
func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
