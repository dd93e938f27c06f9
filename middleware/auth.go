package middleware

import (
	"net/http"
	"strings"

	"hearly/transcription-api/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdentityKey is where the verified identity lands in the gin context.
const IdentityKey = "identity"

// NewAuthMiddleware extracts the bearer token, verifies it and stores
// the resulting Identity. Handlers downstream never see the raw token.
func NewAuthMiddleware(v *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Missing token",
				"requestID": requestID,
			})
			return
		}

		ident, err := v.Verify(c.Request.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Authorization token invalid",
				"requestID": requestID,
			})

			zap.L().Warn("Rejected bearer token", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.Set(IdentityKey, ident)
		c.Next()
	}
}
