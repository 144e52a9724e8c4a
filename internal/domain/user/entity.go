package user

import (
	"errors"
	"strings"
	"time"
)

const (
	// RoleUser is the role assigned to every self-registered account.
	RoleUser = "user"
	// RoleAdmin is documented in the API but never assigned by registration.
	RoleAdmin = "admin"
)

// ErrEmailTaken is returned by repositories when the storage layer rejects a
// user because the email is already present.
var ErrEmailTaken = errors.New("email already taken")

// User represents a user entity in the system.
type User struct {
	ID        string    // ID is the opaque unique identifier generated at creation
	Email     string    // Email is the unique email address, case-sensitive as stored
	Password  string    // Password is the bcrypt hash, never plaintext
	Name      string    // Name is the display name of the user
	Role      string    // Role is the authorization role of the user
	CreatedAt time.Time // CreatedAt is the creation timestamp
	UpdatedAt time.Time // UpdatedAt is the last update timestamp
}

// LocalPart returns the part of an email address before the first '@'.
// An address without '@' is returned unchanged.
func LocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
