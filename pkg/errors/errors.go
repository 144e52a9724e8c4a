package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Public messages returned to API callers.
const (
	MsgInternal       = "Internal server error"
	MsgDuplicateEmail = "User with this email already exists"
	MsgUnauthorized   = "Unauthorized"
	MsgNotFound       = "Not Found"
)

var (
	ErrNotFound       = NewNotFoundError("resource", MsgNotFound)
	ErrDuplicateEmail = NewAlreadyExistsError("user", MsgDuplicateEmail)
	ErrInternal       = NewInternalError(MsgInternal, nil)
	ErrUnauthorized   = NewUnauthorizedError(MsgUnauthorized)
)

// HTTPStatuser is implemented by errors that map to an HTTP status code.
type HTTPStatuser interface {
	HTTPStatus() int
}

// publicError is implemented by errors whose text may reach an API caller.
type publicError interface {
	Public() string
}

// HTTPStatus resolves the status code for err, defaulting to 500.
func HTTPStatus(err error) int {
	var s HTTPStatuser
	if errors.As(err, &s) {
		return s.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message that is safe to show to an API caller.
// Internal and unknown errors collapse to MsgInternal.
func PublicMessage(err error) string {
	var internal *InternalError
	if errors.As(err, &internal) {
		return MsgInternal
	}
	var p publicError
	if errors.As(err, &p) {
		return p.Public()
	}
	return MsgInternal
}

// ValidationError is a rejected field. Message is the caller-facing text and
// Details lists every violated rule when more than one was reported.
type ValidationError struct {
	Field   string
	Message string
	Details []string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s - %s", e.Field, e.Message)
}

func (e *ValidationError) Public() string  { return e.Message }
func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }

type NotFoundError struct {
	Resource string
	Message  string
}

func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{Resource: resource, Message: message}
}

func (e *NotFoundError) Error() string {
	return orDefault(e.Message, e.Resource+" not found")
}

func (e *NotFoundError) Public() string  { return e.Error() }
func (e *NotFoundError) HTTPStatus() int { return http.StatusNotFound }

// AlreadyExistsError is reported as a bad request, not a conflict: clients
// of the registration API treat every rejected submission alike.
type AlreadyExistsError struct {
	Resource string
	Message  string
}

func NewAlreadyExistsError(resource, message string) *AlreadyExistsError {
	return &AlreadyExistsError{Resource: resource, Message: message}
}

func (e *AlreadyExistsError) Error() string {
	return orDefault(e.Message, e.Resource+" already exists")
}

func (e *AlreadyExistsError) Public() string  { return e.Error() }
func (e *AlreadyExistsError) HTTPStatus() int { return http.StatusBadRequest }

// UnauthorizedError is a missing or invalid session.
type UnauthorizedError struct {
	Message string
}

func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

func (e *UnauthorizedError) Error() string   { return orDefault(e.Message, MsgUnauthorized) }
func (e *UnauthorizedError) Public() string  { return e.Error() }
func (e *UnauthorizedError) HTTPStatus() int { return http.StatusUnauthorized }

// InternalError wraps a failure whose cause must stay server-side, even when
// that cause is itself a public error.
type InternalError struct {
	Message string
	Err     error
}

func NewInternalError(message string, err error) *InternalError {
	return &InternalError{Message: message, Err: err}
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *InternalError) Unwrap() error   { return e.Err }
func (e *InternalError) HTTPStatus() int { return http.StatusInternalServerError }

func orDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}
