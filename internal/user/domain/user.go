package domain

import (
	"errors"
	"time"
)

// User is the core credential record. PasswordHash never leaves this package's
// consumers except through the repository; transport layers expose PublicUser.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role is the closed set of user roles.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// RoleFromString maps an external role string to a Role. Unknown or empty
// values map to RoleUser. This conversion happens at the store boundary only.
func RoleFromString(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleModerator:
		return RoleModerator
	default:
		return RoleUser
	}
}

// String returns the role's external string form.
func (r Role) String() string { return string(r) }

// PublicUser is the user view safe to hand to clients: no password hash.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Public returns the client-safe view of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role.String(),
	}
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}
