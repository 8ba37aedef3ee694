package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// APITokenMiddleware guards the admin REST surface with a static bearer
// token. Dashboard user sessions live in the external auth provider; this
// only authenticates the dashboard backend itself.
func APITokenMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			// No token configured means the surface is open (dev mode).
			c.Next()
			return
		}

		var presented string
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				presented = parts[1]
			}
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"details": "missing or invalid API token",
			})
			return
		}

		c.Next()
	}
}
