package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meela-intake/utils"
)

// ErrorHandler пишет в лог ошибки, накопленные в c.Errors.
// В Sentry уходят только серверные: ошибки разбора запроса (gin.ErrorTypeBind) остаются в логе.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("route", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Int("status", status),
		}

		for _, ginErr := range c.Errors {
			if ginErr.IsType(gin.ErrorTypeBind) {
				logger.Debug("rejected request", append(fields, zap.Error(ginErr.Err))...)
				continue
			}

			logger.Error("request failed", append(fields, zap.Error(ginErr.Err))...)
			if status >= 500 {
				utils.CaptureError(c.Request.Context(), ginErr.Err, map[string]interface{}{
					"route":  c.FullPath(),
					"method": c.Request.Method,
					"status": status,
				})
			}
		}
	}
}
