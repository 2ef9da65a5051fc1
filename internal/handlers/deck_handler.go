package handlers

import (
	"net/http"

	"recalltrainer/internal/deck"
	"recalltrainer/internal/security"
)

// DeckHandler serves the deck catalog and normalized deck contents
type DeckHandler struct {
	library *deck.Library
}

// NewDeckHandler creates a new deck handler
func NewDeckHandler(library *deck.Library) *DeckHandler {
	return &DeckHandler{library: library}
}

// Home is the application root. Unauthenticated visitors are redirected
// to the sign-in page; signed-in users get the app bootstrap payload.
func (h *DeckHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if cookie, err := r.Cookie(security.UserSessionCookie); err != nil || cookie.Value == "" {
		http.Redirect(w, r, "/auth", http.StatusSeeOther)
		return
	}
	h.ListDecks(w, r)
}

// ListDecks lists the available decks with display names.
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	names := h.library.Names()
	decks := make([]map[string]any, 0, len(names))
	for _, name := range names {
		decks = append(decks, map[string]any{
			"name":        name,
			"displayName": deck.FormatName(name),
			"cardCount":   len(h.library.Raw(name)),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "decks": decks})
}

// GetDeck returns one deck's cards in canonical form.
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	raw := h.library.Raw(name)
	if raw == nil {
		respondWithError(w, http.StatusNotFound, "Deck not found.", "", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"name":        name,
		"displayName": deck.FormatName(name),
		"cards":       deck.Normalize(raw),
	})
}
