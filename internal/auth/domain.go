package auth

import (
	"time"

	"github.com/coursemart/coursemart/internal/shared"
)

// User represents an account able to authenticate.
type User struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         shared.Role `json:"role"`
	CreatedAt    time.Time   `json:"created_at"`
}

// NewUser carries the fields needed to create an account.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	Role         shared.Role
}

// Session is the result of a successful login or registration.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}
