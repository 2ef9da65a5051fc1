package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"recalltrainer/internal/repository"
	"recalltrainer/internal/security"
	"recalltrainer/internal/service"
)

// AdminHandler handles the admin login surface and reporting endpoints
type AdminHandler struct {
	authService     *service.AuthService
	reportRepo      *repository.ReportRepository
	sessionSecret   string
	adminPassword   string
	sessionDuration time.Duration
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(authService *service.AuthService, reportRepo *repository.ReportRepository, sessionSecret, adminPassword string, sessionDuration time.Duration) *AdminHandler {
	return &AdminHandler{
		authService:     authService,
		reportRepo:      reportRepo,
		sessionSecret:   sessionSecret,
		adminPassword:   adminPassword,
		sessionDuration: sessionDuration,
	}
}

// Login verifies the shared admin password and sets the admin session cookie.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.adminPassword == "" {
		respondWithError(w, http.StatusInternalServerError, "ADMIN_PASSWORD is not configured.", "", nil)
		return
	}
	if h.sessionSecret == "" {
		respondWithError(w, http.StatusInternalServerError, "ADMIN_SESSION_SECRET is not configured.", "", nil)
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request.", "failed to decode admin login request", err)
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.adminPassword)) != 1 {
		respondWithError(w, http.StatusUnauthorized, "Invalid credentials.", "", nil)
		return
	}

	token, err := security.CreateAdminSessionToken(h.sessionSecret, h.sessionDuration)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Login failed.", "failed to create admin session token", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, security.AdminSessionCookie, token, h.sessionDuration))
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Session reports whether the request carries a valid admin session.
func (h *AdminHandler) Session(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(security.AdminSessionCookie)
	if err != nil || security.VerifyAdminSessionToken(h.sessionSecret, cookie.Value) != nil {
		respondJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "authenticated": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "authenticated": true})
}

// Logout clears the admin session cookie.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, security.CreateDeleteCookie(r, security.AdminSessionCookie))
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// PromoteUser grants the admin role to an existing account by email.
func (h *AdminHandler) PromoteUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request.", "failed to decode promote request", err)
		return
	}

	user, err := h.authService.PromoteToAdmin(req.Email)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondWithError(w, http.StatusBadRequest, "No user found with that email.", "", nil)
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error(), "promote to admin failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": map[string]any{"userId": user.UserID, "email": user.Email, "role": user.Role},
	})
}

// TopDifficultCards reports the cards learners get wrong most often.
func (h *AdminHandler) TopDifficultCards(w http.ResponseWriter, r *http.Request) {
	opts := repository.TopDifficultCardsOptions{
		DeckName:    r.URL.Query().Get("deck"),
		Limit:       queryInt(r, "limit", 20),
		MinAttempts: queryInt(r, "minAttempts", 3),
	}

	cards, err := h.reportRepo.TopDifficultCards(opts)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "query_failed", "top-difficult-cards query failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "data": cards})
}

// LearnerProgress reports mastered-card counts per learner.
func (h *AdminHandler) LearnerProgress(w http.ResponseWriter, r *http.Request) {
	opts := repository.LearnerProgressOptions{
		DeckName: r.URL.Query().Get("deck"),
		Limit:    queryInt(r, "limit", 100),
	}

	rows, err := h.reportRepo.LearnerProgress(opts)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "query_failed", "learner-progress query failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "data": rows})
}

// ModeReport runs the sectioned engagement report for one study mode.
func (h *AdminHandler) ModeReport(w http.ResponseWriter, r *http.Request) {
	mode := r.PathValue("mode")
	if !repository.ReportModes[mode] {
		respondWithError(w, http.StatusBadRequest, "Unsupported report mode.", "", nil)
		return
	}

	deck := r.URL.Query().Get("deck")
	limit := queryInt(r, "limit", 25)

	sections, err := h.reportRepo.ModeReport(mode, deck, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "query_failed", "mode report query failed for "+mode, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"mode":     mode,
		"filters":  map[string]any{"deck": nullableString(deck), "limit": limit},
		"sections": sections,
	})
}

// queryInt reads an integer query parameter, falling back to def when the
// parameter is absent or malformed. Range clamping happens in the repository.
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
