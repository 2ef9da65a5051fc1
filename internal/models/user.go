package models

import "time"

// Roles a user account can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a learner account. UserID is an application-generated
// key ("user_<uuid>") so accounts can be referenced in telemetry before
// they hit the database.
type User struct {
	UserID       string
	Email        string
	PasswordHash string
	Role         string
	DisplayName  string
	CreatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
