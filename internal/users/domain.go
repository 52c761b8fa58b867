package users

import (
	"time"

	"github.com/coursemart/coursemart/internal/rbac"
	"github.com/coursemart/coursemart/internal/shared"
)

// User represents a user account for management.
type User struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      shared.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// PolicyResource returns the shape the policy registry evaluates.
func (u User) PolicyResource() rbac.UserResource {
	return rbac.UserResource{ID: u.ID}
}
