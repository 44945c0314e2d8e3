package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger logs each request with zap. Runs outside the auth gate, so after
// the chain completes it can attach the resolved principal and whether the
// gate rotated the session token.
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if userID, ok := CurrentUserID(c); ok {
			fields = append(fields, zap.Int64("user_id", userID))
		}
		if c.Writer.Header().Get(RenewedTokenHeader) != "" {
			fields = append(fields, zap.Bool("token_renewed", true))
		}
		log.Info("request", fields...)
	}
}
