package scryfall

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	client := NewClient(ClientOptions{})

	if client == nil {
		t.Fatal("NewClient() returned nil")
	}

	if client.httpClient == nil {
		t.Error("httpClient is nil")
	}

	if client.rateLimiter == nil {
		t.Error("rateLimiter is nil")
	}

	if client.userAgent == "" {
		t.Error("userAgent is empty")
	}

	if client.baseURL != defaultBaseURL {
		t.Errorf("baseURL = %q, want %q", client.baseURL, defaultBaseURL)
	}
}

func TestClient_RateLimiting(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"object":"list","data":[]}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		var result SearchResult
		if err := client.doRequest(ctx, server.URL, &result); err != nil {
			t.Fatalf("Request %d failed: %v", i+1, err)
		}
	}
	elapsed := time.Since(start)

	if requestCount != 3 {
		t.Errorf("Expected 3 requests, got %d", requestCount)
	}

	// 3 requests at 100ms spacing should take at least 200ms.
	if elapsed < 200*time.Millisecond {
		t.Errorf("Expected at least 200ms for 3 requests, took %v", elapsed)
	}
}

func TestClient_RetryOn429(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		if requestCount == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"object":"list","data":[]}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})
	client.backoff = 10 * time.Millisecond

	var result SearchResult
	if err := client.doRequest(context.Background(), server.URL, &result); err != nil {
		t.Fatalf("doRequest failed: %v", err)
	}

	if requestCount != 2 {
		t.Errorf("Expected 2 requests (1 rate-limited + 1 retry), got %d", requestCount)
	}
}

func TestClient_RetryExhaustion(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})
	client.backoff = 10 * time.Millisecond

	var result SearchResult
	err := client.doRequest(context.Background(), server.URL, &result)
	if err == nil {
		t.Fatal("Expected error after retries exhausted, got nil")
	}

	if requestCount != maxAttempts {
		t.Errorf("Expected %d attempts, got %d", maxAttempts, requestCount)
	}
}

func TestClient_NotFound(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})

	var result SearchResult
	err := client.doRequest(context.Background(), server.URL, &result)
	if err == nil {
		t.Fatal("Expected NotFoundError, got nil")
	}

	if !IsNotFound(err) {
		t.Errorf("Expected NotFoundError, got %T: %v", err, err)
	}

	// 404 is a definitive answer, not a transient fault.
	if requestCount != 1 {
		t.Errorf("Expected 1 request for 404 (no retry), got %d", requestCount)
	}
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"object":"error","code":"bad_request","status":400,"details":"Invalid query"}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})

	var result SearchResult
	err := client.doRequest(context.Background(), server.URL, &result)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("Expected *APIError, got %T: %v", err, err)
	}

	if apiErr.Details != "Invalid query" {
		t.Errorf("Details = %q, want %q", apiErr.Details, "Invalid query")
	}
}

func TestClient_SearchCards_NoMatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})

	result, err := client.SearchCards(context.Background(), "zzzznonexistent")
	if err != nil {
		t.Fatalf("SearchCards failed: %v", err)
	}

	if len(result.Data) != 0 {
		t.Errorf("Expected empty result, got %d cards", len(result.Data))
	}
}
