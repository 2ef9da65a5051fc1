package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"recalltrainer/internal/models"
	"recalltrainer/internal/repository"
	"recalltrainer/internal/security"
	"recalltrainer/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// AuthService handles account registration, login and role promotion.
type AuthService struct {
	userRepo *repository.UserRepository
	email    *EmailService
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, email *EmailService) *AuthService {
	return &AuthService{userRepo: userRepo, email: email}
}

// newUserID mints an application key for a new account.
func newUserID() string {
	return "user_" + uuid.New().String()
}

// Register creates a new account and sends the welcome email.
func (s *AuthService) Register(email, password, displayName string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)

	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateDisplayName(displayName); err != nil {
		return nil, err
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.CreateUser(newUserID(), email, passwordHash, displayName)
	if errors.Is(err, repository.ErrEmailInUse) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}

	s.sendAsync(func(ctx context.Context) error {
		return s.email.SendWelcomeEmail(ctx, user.Email, user.DisplayName)
	})
	return user, nil
}

// Login authenticates credentials. All failures look identical to the
// caller so login cannot probe which emails exist.
func (s *AuthService) Login(email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil || !security.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetOrCreateOAuthUser resolves a federated sign-in to a local account,
// creating one on first sign-in. OAuth accounts get an unguessable random
// password so the password path stays closed.
func (s *AuthService) GetOrCreateOAuthUser(email, displayName string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	randomPassword := make([]byte, 32)
	if _, err := rand.Read(randomPassword); err != nil {
		return nil, fmt.Errorf("failed to generate oauth password: %w", err)
	}
	passwordHash, err := security.HashPassword(hex.EncodeToString(randomPassword))
	if err != nil {
		return nil, fmt.Errorf("failed to hash oauth password: %w", err)
	}

	user, err := s.userRepo.CreateUser(newUserID(), email, passwordHash, strings.TrimSpace(displayName))
	if errors.Is(err, repository.ErrEmailInUse) {
		// Lost a race with a concurrent first sign-in; use theirs.
		return s.userRepo.GetUserByEmail(email)
	}
	if err != nil {
		return nil, err
	}

	s.sendAsync(func(ctx context.Context) error {
		return s.email.SendWelcomeEmail(ctx, user.Email, user.DisplayName)
	})
	return user, nil
}

// PromoteToAdmin grants the admin role and notifies the account.
func (s *AuthService) PromoteToAdmin(email string) (*models.User, error) {
	user, err := s.userRepo.PromoteToAdmin(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	s.sendAsync(func(ctx context.Context) error {
		return s.email.SendAdminPromotionEmail(ctx, user.Email, user.DisplayName)
	})
	return user, nil
}

// sendAsync runs a notification in the background. Email failures are
// logged, never surfaced: mail must not block or fail account flows.
func (s *AuthService) sendAsync(send func(context.Context) error) {
	if s.email == nil {
		return
	}
	go func() {
		if err := send(context.Background()); err != nil {
			log.Printf("email notification failed: %v", err)
		}
	}()
}
