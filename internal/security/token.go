package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session cookie names. The user and admin surfaces are authenticated
// independently.
const (
	UserSessionCookie  = "user_session"
	AdminSessionCookie = "admin_session"
)

// ErrSecretMissing means a session secret is not configured; token
// operations refuse to run rather than sign with an empty key.
var ErrSecretMissing = errors.New("session secret is not configured")

// UserClaims carries the authenticated user's identity inside the token.
type UserClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// CreateUserSessionToken signs a user session token valid for the given
// duration.
func CreateUserSessionToken(secret, userID, email, role string, duration time.Duration) (string, error) {
	if secret == "" {
		return "", ErrSecretMissing
	}
	claims := UserClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyUserSessionToken validates a user session token and returns its
// claims.
func VerifyUserSessionToken(secret, token string) (*UserClaims, error) {
	if secret == "" {
		return nil, ErrSecretMissing
	}
	claims := &UserClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

// AdminClaims marks a token as belonging to the admin surface. Admin
// sessions are anonymous; only the role travels.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// CreateAdminSessionToken signs an admin session token.
func CreateAdminSessionToken(secret string, duration time.Duration) (string, error) {
	if secret == "" {
		return "", ErrSecretMissing
	}
	claims := AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyAdminSessionToken validates an admin session token, including its
// role claim.
func VerifyAdminSessionToken(secret, token string) error {
	if secret == "" {
		return ErrSecretMissing
	}
	claims := &AdminClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return fmt.Errorf("invalid admin token: %w", err)
	}
	if !parsed.Valid || claims.Role != "admin" {
		return errors.New("invalid admin token")
	}
	return nil
}
