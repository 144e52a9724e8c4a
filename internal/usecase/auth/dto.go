package auth

import "time"

// Registration sources recorded in the activity log details.
const (
	SourceAPI    = "API"
	SourceScript = "script"
)

// RegisterRequest represents the input of a registration attempt.
type RegisterRequest struct {
	Email    string
	Password string
	// Name is optional; nil selects the local part of Email.
	Name *string
	// Source identifies the caller in the activity log. Empty means SourceAPI.
	Source string
}

// RegisterResponse represents the result of a successful registration.
type RegisterResponse struct {
	User User
}

// User represents a user DTO for responses. It never carries the password.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
