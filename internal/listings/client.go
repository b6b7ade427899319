// Package listings fetches lowest secondary-market listings from a
// lower-tier pricing provider. The provider's rate limit is far stricter
// than Scryfall's, so requests are budgeted per rolling window instead of
// per-request spacing.
package listings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// Conservative budget: 10 requests per minute.
	DefaultWindowLimit = 10
	DefaultWindow      = time.Minute
	DefaultMaxWaits    = 3

	defaultTimeout = 30 * time.Second
	maxAttempts    = 3
	initialBackoff = 1 * time.Second
)

// Listing is the lowest observed listing for a card.
type Listing struct {
	Name          string  `json:"name"`
	LowestListing float64 `json:"lowestListing"`
	TCGPlayerURL  string  `json:"tcgplayerUrl"`
}

// Client fetches lowest listings under a rolling-window budget.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *WindowLimiter
	backoff    time.Duration
}

// ClientOptions configures the listings client.
type ClientOptions struct {
	// BaseURL of the listings provider. Required.
	BaseURL string

	// WindowLimit is the number of requests per window (default 10).
	WindowLimit int

	// Window is the rolling window length (default 1 minute).
	Window time.Duration

	// MaxWaits bounds sleeps per request when the budget is exhausted
	// (default 3).
	MaxWaits int

	// Timeout for HTTP requests (default 30 seconds).
	Timeout time.Duration
}

// NewClient creates a listings client.
func NewClient(options ClientOptions) *Client {
	if options.WindowLimit <= 0 {
		options.WindowLimit = DefaultWindowLimit
	}
	if options.Window <= 0 {
		options.Window = DefaultWindow
	}
	if options.MaxWaits <= 0 {
		options.MaxWaits = DefaultMaxWaits
	}
	if options.Timeout <= 0 {
		options.Timeout = defaultTimeout
	}

	return &Client{
		baseURL:    options.BaseURL,
		httpClient: &http.Client{Timeout: options.Timeout},
		limiter:    NewWindowLimiter(options.WindowLimit, options.Window, options.MaxWaits),
		backoff:    initialBackoff,
	}
}

// GetLowestListing fetches the lowest listing for a card name.
func (c *Client) GetLowestListing(ctx context.Context, cardName string) (*Listing, error) {
	u := fmt.Sprintf("%s/listings/lowest?card=%s", c.baseURL, url.QueryEscape(cardName))

	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		listing, retry, err := c.fetchOnce(ctx, u)
		if err == nil {
			return listing, nil
		}
		if !retry || attempt == maxAttempts-1 {
			return nil, err
		}

		lastErr = err
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// fetchOnce performs a single request. retry reports whether the failure
// was transient (network, 429, 5xx).
func (c *Client) fetchOnce(ctx context.Context, u string) (listing *Listing, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read response body: %w", err)
		}

		var l Listing
		if err := json.Unmarshal(body, &l); err != nil {
			return nil, false, fmt.Errorf("failed to parse listing response: %w", err)
		}
		return &l, false, nil

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("listings provider returned status %d", resp.StatusCode)

	case resp.StatusCode == http.StatusNotFound:
		return nil, false, &NotFoundError{Card: cardNameFromURL(u)}

	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, false, fmt.Errorf("listings request failed with status %d: %s", resp.StatusCode, string(body))
	}
}

// NotFoundError indicates the provider has no listing for a card.
type NotFoundError struct {
	Card string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no listing found for %q", e.Card)
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

func cardNameFromURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}
	return parsed.Query().Get("card")
}
