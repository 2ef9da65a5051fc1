package service

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"recalltrainer/internal/database"
	"recalltrainer/internal/models"
	"recalltrainer/internal/repository"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	// Unconfigured email service: sends become logged no-ops.
	email, err := NewEmailService("us-east-1", "", "", "")
	if err != nil {
		t.Fatalf("Failed to create email service: %v", err)
	}
	return NewAuthService(repository.NewUserRepository(db), email)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestAuthService(t)

	user, err := svc.Register("Learner@Example.com", "longenough", "Learner")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "learner@example.com" {
		t.Errorf("expected lowercased email, got %q", user.Email)
	}
	if user.Role != models.RoleUser {
		t.Errorf("expected role user, got %q", user.Role)
	}
	if !strings.HasPrefix(user.UserID, "user_") {
		t.Errorf("expected user_ prefixed id, got %q", user.UserID)
	}

	loggedIn, err := svc.Login("learner@example.com", "longenough")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if loggedIn.UserID != user.UserID {
		t.Errorf("expected same account, got %q vs %q", loggedIn.UserID, user.UserID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestAuthService(t)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"bad email", "not-an-email", "longenough"},
		{"short password", "a@b.com", "short"},
		{"empty email", "", "longenough"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(tt.email, tt.password, ""); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t)

	if _, err := svc.Register("dup@example.com", "longenough", ""); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	_, err := svc.Register("dup@example.com", "otherpassword", "")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	svc := newTestAuthService(t)

	if _, err := svc.Register("known@example.com", "longenough", ""); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Unknown email and wrong password fail identically.
	_, unknownErr := svc.Login("unknown@example.com", "longenough")
	_, wrongErr := svc.Login("known@example.com", "wrongpassword")

	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", unknownErr)
	}
	if !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongErr)
	}
}

func TestGetOrCreateOAuthUser(t *testing.T) {
	svc := newTestAuthService(t)

	created, err := svc.GetOrCreateOAuthUser("oauth@example.com", "OAuth User")
	if err != nil {
		t.Fatalf("GetOrCreateOAuthUser failed: %v", err)
	}

	again, err := svc.GetOrCreateOAuthUser("oauth@example.com", "Different Name")
	if err != nil {
		t.Fatalf("second GetOrCreateOAuthUser failed: %v", err)
	}
	if again.UserID != created.UserID {
		t.Fatalf("expected same account on repeat sign-in, got %q vs %q", again.UserID, created.UserID)
	}
}

func TestPromoteToAdmin(t *testing.T) {
	svc := newTestAuthService(t)

	if _, err := svc.Register("boss@example.com", "longenough", ""); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	promoted, err := svc.PromoteToAdmin("boss@example.com")
	if err != nil {
		t.Fatalf("PromoteToAdmin failed: %v", err)
	}
	if !promoted.IsAdmin() {
		t.Fatalf("expected admin role, got %q", promoted.Role)
	}

	_, err = svc.PromoteToAdmin("ghost@example.com")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
