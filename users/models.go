// Package users holds the User entity and its persistence.
// Business rules around users (registration, login, password reset) live in
// the auth package; this package only knows how to store and find users.
package users

import "time"

// User represents a registered account.
// The `json:"-"` tag on HashedPassword keeps the hash out of every encoded response.
type User struct {
	ID             int       `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
