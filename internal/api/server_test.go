package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/preconroi/preconroi/internal/deck"
	"github.com/preconroi/preconroi/internal/dedup"
	"github.com/preconroi/preconroi/internal/pricecache"
	"github.com/preconroi/preconroi/internal/pricing"
	"github.com/preconroi/preconroi/internal/prices"
	"github.com/preconroi/preconroi/internal/scryfall"
	"github.com/preconroi/preconroi/internal/snapshot"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	snapPath := filepath.Join(t.TempDir(), "prices.json")
	snap := `{
		"updatedAt": "2026-08-01T06:00:00Z",
		"decks": {
			"tyranid-swarm": {
				"totalValue": 145.20,
				"cardCount": 100,
				"cards": [{"name": "The Swarmlord", "quantity": 1, "usd": "12.40", "isCommander": true}]
			}
		}
	}`
	if err := os.WriteFile(snapPath, []byte(snap), 0o644); err != nil {
		t.Fatal(err)
	}

	catalog := deck.NewCatalog([]deck.Deck{
		{ID: "tyranid-swarm", Name: "Tyranid Swarm", SetCode: "40k", Year: 2022, MSRP: 50},
	})
	decklists := deck.NewDecklists(map[string][]deck.Entry{
		"tyranid-swarm": {{Name: "The Swarmlord", Quantity: 1, IsCommander: true}},
	})

	service := prices.NewService(
		snapshot.NewLoader(snapPath, nil),
		pricecache.New(pricecache.NewMemoryStore(), pricecache.Options{}),
		dedup.NewGroup(dedup.Options{}),
		scryfall.NewClient(scryfall.ClientOptions{}),
		pricing.NewSelector(pricing.SelectorOptions{}),
		catalog,
		decklists,
		nil,
	)

	return NewServer(DefaultConfig(), service, nil)
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/health")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestStartServesInBackground(t *testing.T) {
	s := newTestServer(t)
	s.port = 0

	// Start must return once the listener is bound, not block until
	// shutdown, so signal handling in main can run.
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown failed: %v", err)
		}
	}()

	_, port, err := net.SplitHostPort(s.Addr())
	if err != nil {
		t.Fatalf("bad listen address %q: %v", s.Addr(), err)
	}

	resp, err := http.Get("http://127.0.0.1:" + port + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestGetDecks(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/decks")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Data []deck.Deck `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 1 || body.Data[0].ID != "tyranid-swarm" {
		t.Errorf("decks = %+v", body.Data)
	}
}

func TestGetDeckPrices_FromSnapshot(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/decks/tyranid-swarm/prices")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data prices.Result `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Data.Source != prices.SourceSnapshot {
		t.Errorf("source = %q, want snapshot", body.Data.Source)
	}
	if body.Data.Prices.TotalValue != 145.20 {
		t.Errorf("totalValue = %v", body.Data.Prices.TotalValue)
	}
	if body.Data.ROI.Verdict == "" {
		t.Error("missing ROI verdict")
	}
}

func TestGetDeckPrices_UnknownDeck(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/decks/nope/prices")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetDeckROI(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/decks/tyranid-swarm/roi")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Data pricing.Report `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	// 145.20 value vs 50 MSRP is an easy BUY.
	if body.Data.Verdict != pricing.VerdictBuy {
		t.Errorf("verdict = %v, want BUY", body.Data.Verdict)
	}
}

func TestSearchCards_MissingQuery(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/cards/search")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCacheEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/cache/tyranid-swarm")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Data prices.CacheInfo `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Data.Cached {
		t.Error("expected no cache record before any live fetch")
	}
	if !body.Data.Stale {
		t.Error("never-fetched deck should be stale")
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/v1/cache/")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}
