package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"recalltrainer/internal/security"
	"recalltrainer/internal/service"
	"recalltrainer/internal/validation"
)

// AuthHandler handles account registration, login and session inspection
type AuthHandler struct {
	authService     *service.AuthService
	sessionSecret   string
	sessionDuration time.Duration

	googleOAuth       *oauth2.Config
	oauthRedirectBase string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, sessionSecret string, sessionDuration time.Duration, googleOAuth *oauth2.Config, oauthRedirectBase string) *AuthHandler {
	return &AuthHandler{
		authService:       authService,
		sessionSecret:     sessionSecret,
		sessionDuration:   sessionDuration,
		googleOAuth:       googleOAuth,
		oauthRedirectBase: oauthRedirectBase,
	}
}

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// SignInPage is where unauthenticated visitors land. The front end owns
// the actual form; the server answers with the endpoints it should call.
func (h *AuthHandler) SignInPage(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"authenticated": false,
		"login":         "/api/auth/login",
		"register":      "/api/auth/register",
		"google":        "/api/auth/google/start",
	})
}

// Register creates a new account and signs the caller in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.sessionSecret == "" {
		respondWithError(w, http.StatusInternalServerError, "AUTH_SESSION_SECRET is not configured.", "", nil)
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request.", "failed to decode register request", err)
		return
	}

	user, err := h.authService.Register(req.Email, req.Password, req.DisplayName)
	if err != nil {
		var ve validation.ValidationError
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			respondWithError(w, http.StatusConflict, "Email is already in use.", "", nil)
		case errors.As(err, &ve):
			respondWithError(w, http.StatusBadRequest, ve.Error(), "", nil)
		default:
			respondWithError(w, http.StatusInternalServerError, "Registration failed.", "registration failed", err)
		}
		return
	}

	if err := h.setUserSession(w, r, user.UserID, user.Email, user.Role); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Registration failed.", "failed to create session token", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": map[string]any{"userId": user.UserID, "email": user.Email},
	})
}

// Login authenticates credentials and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.sessionSecret == "" {
		respondWithError(w, http.StatusInternalServerError, "AUTH_SESSION_SECRET is not configured.", "", nil)
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request.", "failed to decode login request", err)
		return
	}
	if req.Email == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "Email and password required.", "", nil)
		return
	}

	user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondWithError(w, http.StatusUnauthorized, "Invalid credentials.", "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Login failed.", "login failed", err)
		return
	}

	if err := h.setUserSession(w, r, user.UserID, user.Email, user.Role); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Login failed.", "failed to create session token", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": map[string]any{"userId": user.UserID, "email": user.Email, "role": user.Role},
	})
}

// Session reports whether the request carries a valid user session. It
// always answers 200 so the client can render either state without
// special-casing errors.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(security.UserSessionCookie)
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]any{"ok": true, "authenticated": false, "user": nil})
		return
	}

	claims, err := security.VerifyUserSessionToken(h.sessionSecret, cookie.Value)
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]any{"ok": true, "authenticated": false, "user": nil})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"authenticated": true,
		"user": map[string]any{
			"userId":      claims.UserID,
			"email":       claims.Email,
			"role":        claims.Role,
			"isAnonymous": claims.Role == "anonymous" && claims.UserID == "",
		},
	})
}

// Logout clears the user session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, security.CreateDeleteCookie(r, security.UserSessionCookie))
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *AuthHandler) setUserSession(w http.ResponseWriter, r *http.Request, userID, email, role string) error {
	token, err := security.CreateUserSessionToken(h.sessionSecret, userID, email, role, h.sessionDuration)
	if err != nil {
		return err
	}
	http.SetCookie(w, security.CreateSessionCookie(r, security.UserSessionCookie, token, h.sessionDuration))
	return nil
}
