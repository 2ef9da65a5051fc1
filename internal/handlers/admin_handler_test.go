package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recalltrainer/internal/security"
)

const (
	testAdminSecret   = "test-admin-secret"
	testAdminPassword = "correct horse battery staple"
)

func newTestAdminHandler() *AdminHandler {
	return NewAdminHandler(nil, nil, testAdminSecret, testAdminPassword, time.Hour)
}

func TestAdminLoginWrongPassword(t *testing.T) {
	handler := newTestAdminHandler()
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"password":"nope"}`))

	handler.Login(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", recorder.Code)
	}
	body := decodeBody(t, recorder)
	if body["error"] != "Invalid credentials." {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}

func TestAdminLoginCorrectPasswordSetsCookie(t *testing.T) {
	handler := newTestAdminHandler()
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"password":"`+testAdminPassword+`"}`))

	handler.Login(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}

	cookies := recorder.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != security.AdminSessionCookie {
		t.Fatalf("expected %s cookie, got %v", security.AdminSessionCookie, cookies)
	}
	if err := security.VerifyAdminSessionToken(testAdminSecret, cookies[0].Value); err != nil {
		t.Fatalf("cookie token failed verification: %v", err)
	}
	if !cookies[0].HttpOnly {
		t.Fatal("expected HttpOnly cookie")
	}
}

func TestAdminLoginUnconfiguredPassword(t *testing.T) {
	handler := NewAdminHandler(nil, nil, testAdminSecret, "", time.Hour)
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"password":""}`))

	handler.Login(recorder, req)

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", recorder.Code)
	}
	body := decodeBody(t, recorder)
	if body["error"] != "ADMIN_PASSWORD is not configured." {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}

func TestAdminSession(t *testing.T) {
	handler := newTestAdminHandler()

	// Without a cookie.
	recorder := httptest.NewRecorder()
	handler.Session(recorder, httptest.NewRequest(http.MethodGet, "/api/admin/session", nil))
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without cookie, got %d", recorder.Code)
	}

	// With a valid cookie.
	token, err := security.CreateAdminSessionToken(testAdminSecret, time.Hour)
	if err != nil {
		t.Fatalf("failed to create admin token: %v", err)
	}
	recorder = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
	req.AddCookie(&http.Cookie{Name: security.AdminSessionCookie, Value: token})
	handler.Session(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200 with cookie, got %d", recorder.Code)
	}
	body := decodeBody(t, recorder)
	if body["authenticated"] != true {
		t.Fatalf("expected authenticated true, got %v", body["authenticated"])
	}
}

func TestModeReportRejectsUnknownMode(t *testing.T) {
	handler := newTestAdminHandler()
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/reports/mode/karaoke", nil)
	req.SetPathValue("mode", "karaoke")

	handler.ModeReport(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", recorder.Code)
	}
	body := decodeBody(t, recorder)
	if body["error"] != "Unsupported report mode." {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		query string
		key   string
		def   int
		want  int
	}{
		{"", "limit", 20, 20},
		{"limit=50", "limit", 20, 50},
		{"limit=abc", "limit", 20, 20},
		{"limit=-5", "limit", 20, -5},
		{"minAttempts=7", "minAttempts", 3, 7},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/reports?"+tt.query, nil)
		if got := queryInt(req, tt.key, tt.def); got != tt.want {
			t.Errorf("queryInt(%q, %q, %d) = %d, want %d", tt.query, tt.key, tt.def, got, tt.want)
		}
	}
}
