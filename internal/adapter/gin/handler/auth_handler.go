package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-registration-service/internal/usecase/auth"
	pkgerrors "user-registration-service/pkg/errors"
	"user-registration-service/pkg/logger"
)

// MsgRegistered is returned with a newly created user.
const MsgRegistered = "User registered successfully"

// MsgInvalidBody is returned when the request body is not valid JSON.
const MsgInvalidBody = "Invalid request body"

// AuthHandler handles HTTP requests for account operations
type AuthHandler struct {
	uc  auth.Usecase
	log *zap.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(uc auth.Usecase, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		uc:  uc,
		log: log,
	}
}

// RegisterRequest represents the HTTP request body for registration.
// Rules are checked by the registrar so every failure carries its own message.
type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RegisterResponse represents the HTTP response for a created user
type RegisterResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.WithContext(ctx, h.log)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: MsgInvalidBody})
		return
	}

	resp, err := h.uc.Register(ctx, auth.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Source:   auth.SourceAPI,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, RegisterResponse{
		Message: MsgRegistered,
		User: UserResponse{
			ID:        resp.User.ID,
			Email:     resp.User.Email,
			Name:      resp.User.Name,
			Role:      resp.User.Role,
			CreatedAt: resp.User.CreatedAt,
			UpdatedAt: resp.User.UpdatedAt,
		},
	})
}

// handleError converts usecase errors to HTTP responses. Internal details are
// logged and never returned.
func (h *AuthHandler) handleError(c *gin.Context, err error) {
	status := pkgerrors.HTTPStatus(err)
	body := ErrorResponse{Error: pkgerrors.PublicMessage(err)}

	var verr *pkgerrors.ValidationError
	if errors.As(err, &verr) {
		body.Details = verr.Details
	}

	log := logger.WithContext(c.Request.Context(), h.log)
	if status >= http.StatusInternalServerError {
		log.Error("registration failed", zap.Error(err))
	} else {
		log.Info("registration rejected", zap.Int("status", status), zap.String("reason", body.Error))
	}

	c.JSON(status, body)
}
