package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/Offical-Dhiraj/bloodchain/pkg/errors"
	"github.com/Offical-Dhiraj/bloodchain/pkg/response"
)

// CronSecret guards the internal job-trigger endpoints with a shared bearer
// secret instead of user tokens.
func CronSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(secret)) != 1 {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}
