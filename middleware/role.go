package middleware

import (
	"net/http"

	"sponsorly/models"
	"sponsorly/utils"

	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through only when the caller has one of roles.
// It must run after JWTAuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		role := Role(c)
		if role == "" {
			utils.JSONError(c, http.StatusUnauthorized, "Insufficient authorization", "")
			return
		}
		if !allowed[role] {
			utils.JSONError(c, http.StatusForbidden, "You do not have access to this area", string(role))
			return
		}
		c.Next()
	}
}
