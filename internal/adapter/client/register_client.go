// Package client calls the registration endpoint the way the sign-up form does.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"user-registration-service/pkg/security"
)

const registerPath = "/api/auth/register"

// Messages surfaced when the server gives no usable error.
const (
	MsgNetworkError       = "Network error"
	MsgRegistrationFailed = "Registration failed"
)

// Input is what the sign-up form collects.
type Input struct {
	Email           string
	Password        string
	ConfirmPassword string
	Name            *string
}

// User is the created account as returned by the server.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FormError lists every rule the input violated before anything was sent.
type FormError struct {
	Violations []security.Violation
}

func (e *FormError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return strings.Join(msgs, "; ")
}

// RequestError is a failed registration. Message is safe to show to the user.
type RequestError struct {
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string { return e.Message }

func (e *RequestError) Unwrap() error { return e.Err }

// RegisterClient posts registrations to a running server.
type RegisterClient struct {
	baseURL string
	http    *http.Client
	rules   security.RuleSet
}

// NewRegisterClient creates a client for baseURL. A nil httpClient selects one
// with a 10 second timeout; nil rules skip local validation.
func NewRegisterClient(baseURL string, httpClient *http.Client, rules security.RuleSet) *RegisterClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &RegisterClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		rules:   rules,
	}
}

type registerBody struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
}

type registerReply struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
	Error   string `json:"error"`
}

// Register validates in against the client rules and posts it.
func (c *RegisterClient) Register(ctx context.Context, in Input) (*User, error) {
	if violations := c.rules.Evaluate(security.Credentials{
		Email:           in.Email,
		Password:        in.Password,
		ConfirmPassword: in.ConfirmPassword,
	}); len(violations) > 0 {
		return nil, &FormError{Violations: violations}
	}

	payload, err := json.Marshal(registerBody{Email: in.Email, Password: in.Password, Name: in.Name})
	if err != nil {
		return nil, &RequestError{Message: MsgRegistrationFailed, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+registerPath, bytes.NewReader(payload))
	if err != nil {
		return nil, &RequestError{Message: MsgRegistrationFailed, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Message: MsgNetworkError, Err: err}
	}
	defer resp.Body.Close()

	var reply registerReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, &RequestError{
			Status:  resp.StatusCode,
			Message: MsgRegistrationFailed,
			Err:     fmt.Errorf("decode response: %w", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := reply.Error
		if msg == "" {
			msg = MsgRegistrationFailed
		}
		return nil, &RequestError{Status: resp.StatusCode, Message: msg}
	}

	if reply.User == nil {
		return nil, &RequestError{
			Status:  resp.StatusCode,
			Message: MsgRegistrationFailed,
			Err:     errors.New("response has no user"),
		}
	}

	return reply.User, nil
}
