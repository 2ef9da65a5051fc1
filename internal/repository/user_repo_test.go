package repository

import (
	"errors"
	"path/filepath"
	"testing"

	"recalltrainer/internal/database"
	"recalltrainer/internal/models"
)

func openTestDB(t *testing.T) *database.DB {
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
	return db
}

func TestCreateUserAndLookup(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))

	created, err := repo.CreateUser("user_1", "Learner@Example.com", "salt:hash", "Learner One")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if created.Email != "learner@example.com" {
		t.Errorf("expected lowercased email, got %q", created.Email)
	}
	if created.Role != models.RoleUser {
		t.Errorf("expected role user, got %q", created.Role)
	}

	fetched, err := repo.GetUserByEmail("learner@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if fetched == nil || fetched.UserID != "user_1" || fetched.DisplayName != "Learner One" {
		t.Fatalf("unexpected fetched user: %+v", fetched)
	}

	byID, err := repo.GetUserByID("user_1")
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if byID == nil || byID.Email != "learner@example.com" {
		t.Fatalf("unexpected user by id: %+v", byID)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))

	if _, err := repo.CreateUser("user_1", "dup@example.com", "salt:hash", ""); err != nil {
		t.Fatalf("first CreateUser failed: %v", err)
	}

	_, err := repo.CreateUser("user_2", "dup@example.com", "salt:other", "")
	if !errors.Is(err, ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}

	// The original account is untouched.
	user, err := repo.GetUserByEmail("dup@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if user.UserID != "user_1" {
		t.Fatalf("expected original user_1 to survive, got %q", user.UserID)
	}
}

func TestGetUserByEmailAbsent(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))

	user, err := repo.GetUserByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil for absent user, got %+v", user)
	}
}

func TestPromoteToAdmin(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))

	if _, err := repo.CreateUser("user_1", "boss@example.com", "salt:hash", ""); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	promoted, err := repo.PromoteToAdmin("boss@example.com")
	if err != nil {
		t.Fatalf("PromoteToAdmin failed: %v", err)
	}
	if promoted == nil || promoted.Role != models.RoleAdmin {
		t.Fatalf("expected admin role, got %+v", promoted)
	}

	missing, err := repo.PromoteToAdmin("ghost@example.com")
	if err != nil {
		t.Fatalf("PromoteToAdmin for absent user errored: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for absent user, got %+v", missing)
	}
}
