package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "validation", err: NewValidationError("email", "Invalid email address"), expected: http.StatusBadRequest},
		{name: "duplicate email", err: ErrDuplicateEmail, expected: http.StatusBadRequest},
		{name: "not found", err: ErrNotFound, expected: http.StatusNotFound},
		{name: "unauthorized", err: ErrUnauthorized, expected: http.StatusUnauthorized},
		{name: "internal", err: NewInternalError("failed to create user", errors.New("db down")), expected: http.StatusInternalServerError},
		{name: "wrapped validation", err: fmt.Errorf("register: %w", NewValidationError("password", "too short")), expected: http.StatusBadRequest},
		{name: "plain error", err: errors.New("boom"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "Invalid email address", PublicMessage(NewValidationError("email", "Invalid email address")))
	assert.Equal(t, MsgDuplicateEmail, PublicMessage(ErrDuplicateEmail))
	assert.Equal(t, MsgUnauthorized, PublicMessage(ErrUnauthorized))
	assert.Equal(t, MsgNotFound, PublicMessage(ErrNotFound))

	// Internal causes never leak
	assert.Equal(t, MsgInternal, PublicMessage(NewInternalError("failed to create user", errors.New("pq: connection refused"))))
	assert.Equal(t, MsgInternal, PublicMessage(errors.New("pq: connection refused")))
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := errors.New("db down")
	err := NewInternalError("failed to check existing email", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to check existing email: db down", err.Error())
	assert.Equal(t, MsgInternal, NewInternalError(MsgInternal, nil).Error())
}

func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "validation failed: email - Invalid email address", NewValidationError("email", "Invalid email address").Error())
	assert.Equal(t, "validation failed: bad input", NewValidationError("", "bad input").Error())
}

func TestPublicMessage_InternalHidesPublicCause(t *testing.T) {
	err := NewInternalError("failed to record activity", ErrDuplicateEmail)
	assert.Equal(t, MsgInternal, PublicMessage(err))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
}
