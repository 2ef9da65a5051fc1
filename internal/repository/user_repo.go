package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"recalltrainer/internal/database"
	"recalltrainer/internal/models"
)

// ErrEmailInUse is returned when registration hits an existing email.
var ErrEmailInUse = errors.New("email is already in use")

// UserRepository handles database operations for user accounts
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a new account. The insert skips silently on an email
// conflict, which surfaces as ErrEmailInUse; registration must never leak
// whether an address exists through a different error shape.
func (r *UserRepository) CreateUser(userID, email, passwordHash, displayName string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	query := r.db.Dialect.InsertIgnore(`
		INSERT INTO users (user_id, email, password_hash, role, display_name)
		VALUES (?, ?, ?, 'user', ?)
	`, "email")
	result, err := r.db.Exec(query, userID, email, passwordHash, nullString(displayName))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check user insert: %w", err)
	}
	if affected == 0 {
		return nil, ErrEmailInUse
	}

	return &models.User{
		UserID:       userID,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
		DisplayName:  displayName,
		CreatedAt:    time.Now(),
	}, nil
}

// GetUserByEmail retrieves a user by email address, nil if absent.
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	query := `
		SELECT user_id, email, password_hash, role, COALESCE(display_name, ''), created_at
		FROM users
		WHERE email = ?
	`
	return r.scanUser(r.db.QueryRow(query, email))
}

// GetUserByID retrieves a user by its application key, nil if absent.
func (r *UserRepository) GetUserByID(userID string) (*models.User, error) {
	query := `
		SELECT user_id, email, password_hash, role, COALESCE(display_name, ''), created_at
		FROM users
		WHERE user_id = ?
	`
	return r.scanUser(r.db.QueryRow(query, userID))
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.UserID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.DisplayName,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// PromoteToAdmin grants the admin role to the account with the given email.
// Returns the updated user, or nil if no account matched.
func (r *UserRepository) PromoteToAdmin(email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("email is required")
	}

	result, err := r.db.Exec("UPDATE users SET role = 'admin' WHERE email = ?", email)
	if err != nil {
		return nil, fmt.Errorf("failed to promote user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check promotion: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	return r.GetUserByEmail(email)
}

// nullString maps "" to NULL for nullable text columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
