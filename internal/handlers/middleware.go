package handlers

import (
	"log"
	"net/http"
	"time"

	"recalltrainer/internal/security"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	adminSecret string
	limiter     *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(adminSecret string, limiter *security.RateLimiter) *Middleware {
	return &Middleware{adminSecret: adminSecret, limiter: limiter}
}

// RequireAdmin is middleware that requires a valid admin session cookie.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.adminSecret == "" {
			respondWithError(w, http.StatusInternalServerError, "ADMIN_SESSION_SECRET is not configured.", "", nil)
			return
		}

		cookie, err := r.Cookie(security.AdminSessionCookie)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Admin authentication required.", "", nil)
			return
		}
		if err := security.VerifyAdminSessionToken(m.adminSecret, cookie.Value); err != nil {
			http.SetCookie(w, security.CreateDeleteCookie(r, security.AdminSessionCookie))
			respondWithError(w, http.StatusUnauthorized, "Admin authentication required.", "", nil)
			return
		}

		next(w, r)
	}
}

// RateLimit rejects requests once a client IP exhausts its budget. Applied
// to the credential endpoints to slow guessing.
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.limiter.Allow(security.GetClientIP(r)) {
			respondWithError(w, http.StatusTooManyRequests, "Too many requests. Try again later.", "", nil)
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
