package deck

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCatalog(t *testing.T) {
	path := writeFile(t, "decks.json", `{
		"tyranid-swarm": {"name": "Tyranid Swarm", "set": "40k", "year": 2022, "msrp": 50, "colors": ["G", "U"]},
		"necron-dynasties": {"id": "necron-dynasties", "name": "Necron Dynasties", "set": "40k", "year": 2022, "msrp": 50}
	}`)

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}

	d, ok := catalog.Get("tyranid-swarm")
	if !ok {
		t.Fatal("missing tyranid-swarm")
	}
	if d.ID != "tyranid-swarm" {
		t.Errorf("ID = %q, want backfilled from map key", d.ID)
	}
	if d.MSRP != 50 || d.SetCode != "40k" {
		t.Errorf("deck = %+v", d)
	}

	all := catalog.All()
	if len(all) != 2 || all[0].ID != "necron-dynasties" {
		t.Errorf("All = %+v, want sorted by id", all)
	}

	if codes := catalog.SetCodes(); !codes["40k"] || len(codes) != 1 {
		t.Errorf("SetCodes = %v", codes)
	}
}

func TestLoadCatalog_MissingSetCode(t *testing.T) {
	path := writeFile(t, "decks.json", `{"broken": {"name": "Broken", "msrp": 40}}`)

	if _, err := LoadCatalog(path); err == nil {
		t.Error("expected error for deck without set code")
	}
}

func TestLoadDecklists(t *testing.T) {
	path := writeFile(t, "decklists.json", `{
		"tyranid-swarm": [
			{"name": "The Swarmlord", "quantity": 1},
			{"name": "Sol Ring", "quantity": 1}
		]
	}`)

	lists, err := LoadDecklists(path)
	if err != nil {
		t.Fatalf("LoadDecklists failed: %v", err)
	}

	entries, ok := lists.Get("tyranid-swarm")
	if !ok {
		t.Fatal("missing tyranid-swarm")
	}

	// No entry was flagged: the first is designated commander.
	if !entries[0].IsCommander {
		t.Error("first entry should be designated commander")
	}
	if entries[1].IsCommander {
		t.Error("second entry should not be commander")
	}
}

func TestLoadDecklists_InvalidQuantity(t *testing.T) {
	path := writeFile(t, "decklists.json", `{"bad": [{"name": "X", "quantity": 0}]}`)

	if _, err := LoadDecklists(path); err == nil {
		t.Error("expected error for non-positive quantity")
	}
}

func TestDecklists_CardNames(t *testing.T) {
	lists := NewDecklists(map[string][]Entry{
		"a": {{Name: "Sol Ring", Quantity: 1}, {Name: "Arcane Signet", Quantity: 1}},
		"b": {{Name: "Sol Ring", Quantity: 1}, {Name: "Command Tower", Quantity: 1}},
	})

	got := lists.CardNames()
	want := []string{"Arcane Signet", "Command Tower", "Sol Ring"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CardNames = %v, want %v", got, want)
	}
}
