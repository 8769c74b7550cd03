package operator

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no operator matches a lookup.
	ErrNotFound = errors.New("operator not found")
	// ErrExists is returned when an email is already registered.
	ErrExists = errors.New("operator exists")
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Operator is a console user allowed to run verifications.
type Operator struct {
	ID           string
	Email        string
	Name         string
	PasswordHash []byte
	TokenVersion int
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// Credentials is a login attempt.
type Credentials struct {
	Email    string
	Password string
}
