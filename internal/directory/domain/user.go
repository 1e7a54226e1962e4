// Package domain holds the user directory's core entity.
package domain

import (
	"errors"
	"time"
)

// User is a directory user record, keyed by a stable Keycloak subject id.
// The gateway never touches these rows directly; it only observes them
// through the validate and register operations.
type User struct {
	ID           string
	KeycloakID   string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.KeycloakID == "" {
		return errors.New("keycloak id is required")
	}
	return nil
}
