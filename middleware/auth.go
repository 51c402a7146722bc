// middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"sponsorly/models"
	"sponsorly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by JWTAuthMiddleware.
const (
	ctxUserID = "userID"
	ctxRole   = "role"
	ctxEmail  = "email"
)

// SessionResolver confirms that a token hash is the user's live session.
type SessionResolver interface {
	ResolveSession(ctx context.Context, userID, tokenHash string) (models.Role, error)
}

// JWTAuthMiddleware validates the bearer token, checks it against the stored
// session (auth cache first, then the user record) and stores the caller's
// identity in the Gin context.
func JWTAuthMiddleware(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := utils.GetLogger()

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, "Missing or invalid Authorization header", "")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := utils.ParseClaims(tokenString)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "Invalid token", "")
			return
		}

		role, err := sessions.ResolveSession(c.Request.Context(), claims.Subject, utils.HashToken(tokenString))
		if err != nil {
			switch {
			case errors.Is(err, utils.ErrForbidden):
				utils.JSONError(c, http.StatusForbidden, "Account suspended", "")
			case errors.Is(err, utils.ErrUnauthorized):
				utils.JSONError(c, http.StatusUnauthorized, "Session expired, please sign in again", "")
			default:
				logger.Error("failed to resolve session", zap.String("userID", claims.Subject), zap.Error(err))
				utils.JSONError(c, http.StatusInternalServerError, "Authentication error", "")
			}
			return
		}

		c.Set(ctxUserID, claims.Subject)
		c.Set(ctxRole, role)
		c.Set(ctxEmail, claims.Email)
		c.Next()
	}
}

// UserID returns the authenticated caller's ID.
func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// Role returns the authenticated caller's role.
func Role(c *gin.Context) models.Role {
	if v, ok := c.Get(ctxRole); ok {
		if role, ok := v.(models.Role); ok {
			return role
		}
	}
	return ""
}

// Actor describes the caller for audit entries.
func Actor(c *gin.Context) models.Actor {
	return models.Actor{
		ID:        UserID(c),
		Email:     c.GetString(ctxEmail),
		Role:      Role(c),
		IP:        getClientIP(c),
		UserAgent: c.Request.UserAgent(),
	}
}
