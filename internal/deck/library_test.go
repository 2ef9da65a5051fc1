package deck

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeDeckFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write deck file %s: %v", name, err)
	}
}

func TestLoadLibrary(t *testing.T) {
	dir := t.TempDir()
	writeDeckFile(t, dir, "zeta.json", `[["1","Q1","A1","d1","d2","d3"]]`)
	writeDeckFile(t, dir, "alpha.json", `[{"cardNumber": 2, "question": "Q2", "answer": "A2"}]`)
	writeDeckFile(t, dir, "broken.json", `{not json`)
	writeDeckFile(t, dir, "notes.txt", `ignored`)

	library, warnings := LoadLibrary(dir)

	if len(warnings) != 1 {
		t.Fatalf("expected one warning for the broken deck, got %v", warnings)
	}
	if got := library.Names(); !reflect.DeepEqual(got, []string{"alpha", "zeta"}) {
		t.Fatalf("expected sorted names [alpha zeta], got %v", got)
	}

	cards := library.Deck("zeta")
	if len(cards) != 1 || cards[0].Question != "Q1" {
		t.Fatalf("unexpected zeta cards: %+v", cards)
	}
}

func TestLoadLibraryMissingDir(t *testing.T) {
	library, warnings := LoadLibrary(filepath.Join(t.TempDir(), "absent"))

	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
	if len(library.Names()) != 0 {
		t.Fatalf("expected empty library, got %v", library.Names())
	}
}

func TestLibraryUnknownDeck(t *testing.T) {
	library := NewLibrary(map[string][]any{"known": {}})

	if library.Raw("unknown") != nil {
		t.Fatal("expected nil raw records for unknown deck")
	}
	if cards := library.Deck("unknown"); cards == nil || len(cards) != 0 {
		t.Fatalf("expected empty non-nil cards for unknown deck, got %v", cards)
	}
}
