package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	pkgerrors "user-registration-service/pkg/errors"
	"user-registration-service/pkg/logger"
	"user-registration-service/pkg/session"
)

// DevPrefix is the path prefix of development-only tooling.
const DevPrefix = "/dev"

// NotFoundPath is where dev routes redirect outside development.
const NotFoundPath = "/404"

// ContentSecurityPolicy is sent with every non-dev response.
const ContentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline' 'unsafe-eval'; " +
	"style-src 'self' 'unsafe-inline'; img-src 'self' data:; font-src 'self' data:; connect-src 'self'"

// TokenVerifier validates a session token.
type TokenVerifier interface {
	Parse(token string) (*session.Claims, error)
}

// SecurityConfig holds the security gate settings.
type SecurityConfig struct {
	Development       bool
	ProtectedPrefixes []string
}

// Security gates /dev routes to development, requires a valid session on
// protected prefixes and sets the security headers on everything else.
func Security(cfg SecurityConfig, verifier TokenVerifier, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if hasPathPrefix(path, DevPrefix) {
			if !cfg.Development {
				c.Redirect(http.StatusTemporaryRedirect, NotFoundPath)
				c.Abort()
				return
			}
			c.Next()
			return
		}

		setSecurityHeaders(c.Writer.Header())

		for _, prefix := range cfg.ProtectedPrefixes {
			if !hasPathPrefix(path, prefix) {
				continue
			}

			claims, err := authenticate(c.Request, verifier)
			if err != nil {
				logger.WithContext(c.Request.Context(), log).Debug("unauthenticated request to protected path",
					zap.String("path", path),
					zap.Error(err),
				)
				unauthorized := pkgerrors.ErrUnauthorized
				c.AbortWithStatusJSON(unauthorized.HTTPStatus(), gin.H{"error": unauthorized.Public()})
				return
			}

			c.Request = c.Request.WithContext(logger.ContextWithUserID(c.Request.Context(), claims.UserID))
			break
		}

		c.Next()
	}
}

func authenticate(r *http.Request, verifier TokenVerifier) (*session.Claims, error) {
	token, err := session.FromRequest(r)
	if err != nil {
		return nil, err
	}
	return verifier.Parse(token)
}

func setSecurityHeaders(h http.Header) {
	h.Set("Content-Security-Policy", ContentSecurityPolicy)
	h.Set("X-XSS-Protection", "1; mode=block")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("X-Frame-Options", "DENY")
}

// hasPathPrefix matches prefix as whole path segments: "/dev" matches "/dev"
// and "/dev/x" but not "/devices".
func hasPathPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
