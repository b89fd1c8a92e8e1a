// Package domain contains the core entities shared by the blog services.
// These are plain Go structs with no external dependencies.
package domain

import (
	"time"
)

// Column limits of the users table.
const (
	MaxUsernameLength = 50
	MaxEmailLength    = 100
)

// User represents a registered account owned by the auth service.
// Other services refer to users by ID only.
type User struct {
	// ID is the unique identifier for the user (auto-generated).
	ID int64 `json:"id"`

	// Username is the unique display name.
	Username string `json:"username"`

	// Email is the unique login address.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This should never be exposed in API responses.
	PasswordHash string `json:"-"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new User with default values.
func NewUser(username, email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// UserSummary is the minimal user projection returned by batch lookups.
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Identity is the verified subject of an identity token.
type Identity struct {
	UserID int64  `json:"id"`
	Email  string `json:"email"`
}
