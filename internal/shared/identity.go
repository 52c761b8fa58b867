package shared

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of account categories.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
)

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleInstructor, RoleStudent}
}

// ParseRole converts raw input into a Role. Unknown values are rejected.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleInstructor:
		return RoleInstructor, nil
	case RoleStudent:
		return RoleStudent, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) String() string { return string(r) }

// Identity is the authenticated caller, rebuilt from a verified token on every request.
type Identity struct {
	ID        int64
	Email     string
	Role      Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Subject returns the (id, role) pair policies evaluate against.
func (i Identity) Subject() Subject {
	return Subject{ID: i.ID, Role: i.Role}
}

// Subject is the minimal caller shape needed by policy decisions.
type Subject struct {
	ID   int64
	Role Role
}
