package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/yaycha/pkg/jwt"
	"github.com/weiawesome/yaycha/pkg/response"
)

const (
	UserIDKey     = "user_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

var (
	ErrMissingHeader = errors.New("missing authorization header")
	ErrBadFormat     = errors.New("invalid authorization format")
)

// TokenValidator validates an access token. *jwt.Manager satisfies it.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware validates bearer tokens locally.
type AuthMiddleware struct {
	validator TokenValidator
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// RequireAuth rejects the request with 401 unless it carries a valid token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := BearerToken(c)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
			return
		}

		claims, err := m.validator.ValidateToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
			return
		}

		SetIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth sets the caller identity when a valid token is present and
// otherwise lets the request through anonymously.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := BearerToken(c); err == nil {
			if claims, err := m.validator.ValidateToken(token); err == nil {
				SetIdentity(c, claims)
			}
		}
		c.Next()
	}
}

// Validate exposes the underlying validator for transports that cannot use
// headers, such as websocket upgrades carrying ?token=.
func (m *AuthMiddleware) Validate(token string) (*jwt.Claims, error) {
	return m.validator.ValidateToken(token)
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader(AuthHeaderKey)
	if authHeader == "" {
		return "", ErrMissingHeader
	}
	if !strings.HasPrefix(authHeader, BearerPrefix) {
		return "", ErrBadFormat
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
	if token == "" {
		return "", ErrBadFormat
	}
	return token, nil
}

// SetIdentity stores the token's user in the gin context.
func SetIdentity(c *gin.Context, claims *jwt.Claims) {
	c.Set(UserIDKey, claims.UserID)
}

// GetUserID extracts user ID from Gin context. Zero means anonymous.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(UserIDKey); exists {
		if v, ok := id.(uint); ok {
			return v
		}
	}
	return 0
}
