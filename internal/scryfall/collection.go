package scryfall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// MaxBatchSize is the maximum number of identifiers per batch request
// (Scryfall limit is 75).
const MaxBatchSize = 75

// CardIdentifier identifies a card for the /cards/collection endpoint.
// Name alone matches the most recent printing; Name plus Set pins the
// printing to a specific set, which deck pricing relies on.
type CardIdentifier struct {
	Name string `json:"name,omitempty"`
	Set  string `json:"set,omitempty"`
}

// CollectionRequest is the request body for /cards/collection.
type CollectionRequest struct {
	Identifiers []CardIdentifier `json:"identifiers"`
}

// CollectionResponse is the response from /cards/collection.
type CollectionResponse struct {
	Object   string           `json:"object"`
	NotFound []CardIdentifier `json:"not_found"`
	Data     []Card           `json:"data"`
}

// GetCardsByNames fetches multiple cards by name using the batch
// /cards/collection endpoint. Automatically chunks requests of more than
// 75 names.
func (c *Client) GetCardsByNames(ctx context.Context, names []string) ([]Card, []string, error) {
	if len(names) == 0 {
		return []Card{}, nil, nil
	}

	identifiers := make([]CardIdentifier, len(names))
	for i, name := range names {
		identifiers[i] = CardIdentifier{Name: name}
	}

	cards, notFoundIDs, err := c.GetCardsByIdentifiers(ctx, identifiers)
	if err != nil {
		return nil, nil, err
	}

	notFound := make([]string, 0, len(notFoundIDs))
	for _, id := range notFoundIDs {
		notFound = append(notFound, id.Name)
	}

	return cards, notFound, nil
}

// GetCardsByIdentifiers fetches cards using a mixed set of identifiers,
// chunking into batches of MaxBatchSize.
func (c *Client) GetCardsByIdentifiers(ctx context.Context, identifiers []CardIdentifier) ([]Card, []CardIdentifier, error) {
	if len(identifiers) == 0 {
		return []Card{}, nil, nil
	}

	var allCards []Card
	var allNotFound []CardIdentifier

	for i := 0; i < len(identifiers); i += MaxBatchSize {
		end := i + MaxBatchSize
		if end > len(identifiers) {
			end = len(identifiers)
		}
		batch := identifiers[i:end]

		cards, notFound, err := c.doCollectionRequest(ctx, batch)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch batch %d-%d: %w", i, end, err)
		}
		allCards = append(allCards, cards...)
		allNotFound = append(allNotFound, notFound...)
	}

	return allCards, allNotFound, nil
}

// doCollectionRequest performs a batch request to /cards/collection with
// the same rate limiting and retry policy as GET requests: 429 and 5xx
// responses back off and retry up to maxAttempts before escalating.
func (c *Client) doCollectionRequest(ctx context.Context, identifiers []CardIdentifier) ([]Card, []CardIdentifier, error) {
	reqBody := CollectionRequest{Identifiers: identifiers}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	u := c.baseURL + "/cards/collection"
	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt < maxAttempts; attempt++ {
		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, nil, fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to fetch cards from Scryfall: %w", err)

			// Retry on network errors
			if attempt < maxAttempts-1 {
				time.Sleep(backoff)
				backoff = minDuration(backoff*2, maxBackoff)
				continue
			}
			return nil, nil, lastErr
		}

		var collectionResp CollectionResponse
		retry, err := c.handleResponse(resp, u, &collectionResp)
		if err == nil {
			return collectionResp.Data, collectionResp.NotFound, nil
		}
		if !retry || attempt == maxAttempts-1 {
			return nil, nil, err
		}

		lastErr = err
		time.Sleep(backoff)
		backoff = minDuration(backoff*2, maxBackoff)
	}

	return nil, nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
