package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recalltrainer/internal/security"
)

func okHandler(called *bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*called = true
		respondJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func TestRequireAdminWithoutCookie(t *testing.T) {
	m := NewMiddleware(testAdminSecret, nil)
	called := false
	recorder := httptest.NewRecorder()

	m.RequireAdmin(okHandler(&called))(recorder, httptest.NewRequest(http.MethodGet, "/api/admin/reports/mode/quiz", nil))

	if called {
		t.Fatal("handler should not have been called")
	}
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", recorder.Code)
	}
}

func TestRequireAdminWithValidCookie(t *testing.T) {
	m := NewMiddleware(testAdminSecret, nil)
	token, err := security.CreateAdminSessionToken(testAdminSecret, time.Hour)
	if err != nil {
		t.Fatalf("failed to create admin token: %v", err)
	}

	called := false
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/reports/mode/quiz", nil)
	req.AddCookie(&http.Cookie{Name: security.AdminSessionCookie, Value: token})

	m.RequireAdmin(okHandler(&called))(recorder, req)

	if !called {
		t.Fatal("handler should have been called")
	}
}

func TestRequireAdminClearsExpiredCookie(t *testing.T) {
	m := NewMiddleware(testAdminSecret, nil)
	token, err := security.CreateAdminSessionToken(testAdminSecret, -time.Minute)
	if err != nil {
		t.Fatalf("failed to create admin token: %v", err)
	}

	called := false
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
	req.AddCookie(&http.Cookie{Name: security.AdminSessionCookie, Value: token})

	m.RequireAdmin(okHandler(&called))(recorder, req)

	if called {
		t.Fatal("handler should not have been called")
	}
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", recorder.Code)
	}

	cookies := recorder.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected deletion cookie, got %v", cookies)
	}
}

func TestRequireAdminWithoutSecret(t *testing.T) {
	m := NewMiddleware("", nil)
	called := false
	recorder := httptest.NewRecorder()

	m.RequireAdmin(okHandler(&called))(recorder, httptest.NewRequest(http.MethodGet, "/api/admin/session", nil))

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", recorder.Code)
	}
}

func TestRateLimitExhaustsBudget(t *testing.T) {
	m := NewMiddleware(testAdminSecret, security.NewRateLimiter(2, time.Minute))
	called := 0
	handler := m.RateLimit(func(w http.ResponseWriter, r *http.Request) {
		called++
		respondJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	for i := 0; i < 3; i++ {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler(recorder, req)

		if i < 2 && recorder.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i, recorder.Code)
		}
		if i == 2 && recorder.Code != http.StatusTooManyRequests {
			t.Fatalf("request %d: expected status 429, got %d", i, recorder.Code)
		}
	}

	if called != 2 {
		t.Fatalf("expected handler called twice, got %d", called)
	}
}
