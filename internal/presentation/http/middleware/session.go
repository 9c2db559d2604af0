package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/magnetiq/magnetiq-go/internal/infrastructure/security"
	"github.com/magnetiq/magnetiq-go/pkg/config"
)

// SessionIDKey is the gin context key carrying the authenticated session ID.
const SessionIDKey = "sessionId"

// SessionAuthMiddleware validates the session JWT issued at capture time and
// exposes the session ID to downstream handlers.
func SessionAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session token required"})
			return
		}

		claims, err := security.ValidateJWT(strings.TrimPrefix(header, "Bearer "), config.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		sessionID, _ := claims["sessionId"].(string)
		if sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(SessionIDKey, sessionID)
		c.Next()
	}
}
