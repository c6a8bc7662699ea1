package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gracepoint-labs/checkin-api/internal/service"
	appErrors "github.com/gracepoint-labs/checkin-api/pkg/errors"
	"github.com/gracepoint-labs/checkin-api/pkg/response"
)

// ContextKioskKey is the gin context key storing kiosk token claims.
const ContextKioskKey = "currentKiosk"

// DeviceJWT protects kiosk routes by requiring a valid device token.
func DeviceJWT(auth *service.DeviceAuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextKioskKey, claims)
		c.Next()
	}
}
