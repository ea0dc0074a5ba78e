package db

import (
	"fmt"
	"time"
)

// Role is the closed set of user roles. Unknown values are rejected at the
// data boundary, not at comparison time.
type Role string

const (
	RoleRider Role = "rider"
	RoleAdmin Role = "admin"
)

// ParseRole validates a raw role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleRider, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

/* User represents a user account */
type User struct {
	ID           string    `json:"id"`
	UUID         string    `json:"uuid"`
	Email        string    `json:"email"`
	UserName     string    `json:"user_name"`
	PhoneNumber  string    `json:"phone_number"`
	CountryCode  string    `json:"country_code"`
	Name         *string   `json:"name,omitempty"`
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	IsVerified   bool      `json:"is_verified"`
	PasswordHash string    `json:"-"` // Never serialize password hash
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
