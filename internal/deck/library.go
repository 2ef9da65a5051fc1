package deck

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Library holds the raw decks loaded from the decks directory. Decks stay
// raw until a session activates one; normalization happens at that point
// so malformed files still load and list.
type Library struct {
	decks map[string][]any
}

// NewLibrary builds a library from an in-memory deck map. Used by tests
// and by callers that source decks from somewhere other than disk.
func NewLibrary(decks map[string][]any) *Library {
	if decks == nil {
		decks = map[string][]any{}
	}
	return &Library{decks: decks}
}

// LoadLibrary reads every *.json file in dir as one deck, keyed by file
// stem. Files that fail to parse are skipped with a warning rather than
// failing startup; a deck being broken must not take the trainer down.
func LoadLibrary(dir string) (*Library, []error) {
	decks := map[string][]any{}
	var warnings []error

	entries, err := os.ReadDir(dir)
	if err != nil {
		return NewLibrary(decks), []error{fmt.Errorf("failed to read decks directory: %w", err)}
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			warnings = append(warnings, fmt.Errorf("failed to read deck %s: %w", name, err))
			continue
		}

		var records []any
		if err := json.Unmarshal(data, &records); err != nil {
			warnings = append(warnings, fmt.Errorf("failed to parse deck %s: %w", name, err))
			continue
		}

		decks[name] = records
	}

	return NewLibrary(decks), warnings
}

// Names returns the deck names in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.decks))
	for name := range l.decks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Deck returns the normalized cards for a deck. Unknown names normalize
// to an empty deck.
func (l *Library) Deck(name string) []Card {
	return Normalize(l.decks[name])
}

// Raw returns the raw records for a deck, or nil if absent.
func (l *Library) Raw(name string) []any {
	return l.decks[name]
}
