package auth

import "context"

// Usecase defines the interface for registration business logic.
type Usecase interface {
	Register(ctx context.Context, in RegisterRequest) (*RegisterResponse, error)
}
