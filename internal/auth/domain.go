package auth

import "time"

// User represents an authenticated user account. ID is the uid stamped on
// every entry the user writes.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
