package scryfall

import (
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const bulkFixture = `[
{"id":"1","name":"Sol Ring","set":"40k","collector_number":"255","prices":{"usd":"2.50"}},
{"id":"2","name":"Arcane Signet","set":"40k","collector_number":"241","prices":{"usd":"1.10"}},
{"id":"3","name":"Sol Ring","set":"ltc","collector_number":"284","prices":{"usd":"2.75","usd_foil":"5.00"}}
]`

func TestStreamBulkCards(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "default-cards.json")
	if err := os.WriteFile(path, []byte(bulkFixture), 0o644); err != nil {
		t.Fatal(err)
	}

	var names []string
	processed, err := StreamBulkCards(context.Background(), path, func(card *Card) error {
		names = append(names, card.Name)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamBulkCards failed: %v", err)
	}

	if processed != 3 {
		t.Errorf("processed = %d, want 3", processed)
	}
	if len(names) != 3 || names[0] != "Sol Ring" || names[1] != "Arcane Signet" {
		t.Errorf("unexpected card order: %v", names)
	}
}

func TestStreamBulkCards_Gzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "default-cards.json.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(bulkFixture)); err != nil {
		t.Fatal(err)
	}
	gz.Close()
	f.Close()

	processed, err := StreamBulkCards(context.Background(), path, func(card *Card) error { return nil })
	if err != nil {
		t.Fatalf("StreamBulkCards failed: %v", err)
	}
	if processed != 3 {
		t.Errorf("processed = %d, want 3", processed)
	}
}

func TestStreamBulkCards_CallbackAborts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "default-cards.json")
	if err := os.WriteFile(path, []byte(bulkFixture), 0o644); err != nil {
		t.Fatal(err)
	}

	stop := errors.New("stop")
	processed, err := StreamBulkCards(context.Background(), path, func(card *Card) error {
		if card.Name == "Arcane Signet" {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected abort error, got %v", err)
	}
	if processed != 2 {
		t.Errorf("processed = %d, want 2", processed)
	}
}

func TestFindBulkData(t *testing.T) {
	list := &BulkDataList{Data: []BulkData{
		{Type: "oracle_cards"},
		{Type: "default_cards", DownloadURI: "https://example.com/default.json"},
	}}

	bd, err := list.FindBulkData("default_cards")
	if err != nil {
		t.Fatalf("FindBulkData failed: %v", err)
	}
	if bd.DownloadURI != "https://example.com/default.json" {
		t.Errorf("unexpected entry: %+v", bd)
	}

	if _, err := list.FindBulkData("all_cards"); err == nil {
		t.Error("expected error for missing bulk type")
	}
}
