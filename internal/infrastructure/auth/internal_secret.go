package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evolvia/student-lab-backend/pkg/logger"
)

// InternalSecretHeader carries the shared secret for operator-only
// endpoints, distinct from per-user bearer tokens
const InternalSecretHeader = "X-Internal-Secret"

// InternalSecret creates a Gin middleware validating the static shared
// secret. An unset secret is a server misconfiguration, not a client
// error; a missing or mismatched header is forbidden.
func InternalSecret(secret string, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			log.Error("Internal endpoint called but INTERNAL_SECRET is not configured",
				logger.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL_SECRET not configured"})
			return
		}

		provided := c.GetHeader(InternalSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			log.Warn("Invalid internal secret",
				logger.String("path", c.Request.URL.Path),
				logger.String("ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: invalid internal secret"})
			return
		}

		c.Next()
	}
}
