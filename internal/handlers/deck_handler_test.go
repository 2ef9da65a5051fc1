package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"recalltrainer/internal/deck"
	"recalltrainer/internal/security"
)

func testDeckHandler() *DeckHandler {
	library := deck.NewLibrary(map[string][]any{
		"greek_letters": {
			[]any{1.0, "α", "alpha", "beta", "gamma", "delta"},
			[]any{2.0, "β", "beta", "alpha", "gamma", "delta"},
		},
	})
	return NewDeckHandler(library)
}

func TestHomeRedirectsWithoutSession(t *testing.T) {
	handler := testDeckHandler()
	recorder := httptest.NewRecorder()

	handler.Home(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d", recorder.Code)
	}
	if loc := recorder.Header().Get("Location"); loc != "/auth" {
		t.Fatalf("expected redirect to /auth, got %q", loc)
	}
}

func TestHomeServesDecksWithSession(t *testing.T) {
	handler := testDeckHandler()
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: security.UserSessionCookie, Value: "some-token"})

	handler.Home(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
}

func TestListDecks(t *testing.T) {
	handler := testDeckHandler()
	recorder := httptest.NewRecorder()

	handler.ListDecks(recorder, httptest.NewRequest(http.MethodGet, "/api/decks", nil))

	body := decodeBody(t, recorder)
	decks, ok := body["decks"].([]any)
	if !ok || len(decks) != 1 {
		t.Fatalf("expected one deck, got %v", body["decks"])
	}
	entry := decks[0].(map[string]any)
	if entry["name"] != "greek_letters" {
		t.Fatalf("expected name greek_letters, got %v", entry["name"])
	}
	if entry["displayName"] != "Greek Letters" {
		t.Fatalf("expected display name Greek Letters, got %v", entry["displayName"])
	}
	if entry["cardCount"] != float64(2) {
		t.Fatalf("expected cardCount 2, got %v", entry["cardCount"])
	}
}

func TestGetDeckUnknown(t *testing.T) {
	handler := testDeckHandler()
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/decks/nope", nil)
	req.SetPathValue("name", "nope")

	handler.GetDeck(recorder, req)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", recorder.Code)
	}
}

func TestGetDeckReturnsNormalizedCards(t *testing.T) {
	handler := testDeckHandler()
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/decks/greek_letters", nil)
	req.SetPathValue("name", "greek_letters")

	handler.GetDeck(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	body := decodeBody(t, recorder)
	cards, ok := body["cards"].([]any)
	if !ok || len(cards) != 2 {
		t.Fatalf("expected two cards, got %v", body["cards"])
	}
	first := cards[0].(map[string]any)
	if first["cardNumber"] != float64(1) || first["question"] != "α" || first["answer"] != "alpha" {
		t.Fatalf("unexpected first card: %v", first)
	}
}
