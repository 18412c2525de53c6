package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/parishkit/chms-api/internal/access"
	"github.com/parishkit/chms-api/internal/handler"
	"github.com/parishkit/chms-api/internal/model"
	"github.com/parishkit/chms-api/internal/repository"
	"github.com/parishkit/chms-api/pkg/auth"
)

const (
	viewerKey = "viewer"
	userKey   = "current_user"
)

type AuthMiddleware struct {
	jwt   auth.JWTService
	users repository.UserRepository
}

func NewAuthMiddleware(jwt auth.JWTService, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users}
}

// Authenticate validates the bearer token, loads the user, and puts
// the resolved viewer into the request context. Tokens for deactivated
// or deleted users are rejected here, not at the service layer.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.jwt.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		user, err := m.users.Get(c.Request.Context(), claims.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to load user"))
			c.Abort()
			return
		}
		if user == nil || user.Status != model.UserStatusActive {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		c.Set(userKey, user)
		c.Set(viewerKey, access.NewViewer(user))
		c.Next()
	}
}

// RequireManager gates owner/admin endpoints.
func (m *AuthMiddleware) RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer := ViewerFromContext(c)
		if !viewer.CanManageUsers {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("insufficient permissions"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// ViewerFromContext returns the viewer set by Authenticate. The zero
// viewer denies everything, so a missing value fails closed.
func ViewerFromContext(c *gin.Context) access.Viewer {
	if v, exists := c.Get(viewerKey); exists {
		return v.(access.Viewer)
	}
	return access.Viewer{}
}

// UserFromContext returns the authenticated user row.
func UserFromContext(c *gin.Context) *model.User {
	if u, exists := c.Get(userKey); exists {
		return u.(*model.User)
	}
	return nil
}
