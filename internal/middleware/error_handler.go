package middleware

import (
	"net/http"

	"github.com/Baaaki/storefront/internal/apperror"
	"github.com/Baaaki/storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const genericErrorMessage = "Something went wrong!"

// ErrorHandler writes the last error recorded on the context as a status
// code and a bare text message. In production 5xx bodies are generic.
func ErrorHandler(isProduction bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := apperror.Status(err)
		message := apperror.Message(err)

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", RequestIDFrom(c)),
			zap.Error(err),
		}
		if status >= http.StatusInternalServerError {
			logger.Log.Error("Request failed", fields...)
			if isProduction {
				message = genericErrorMessage
			}
		} else {
			logger.Log.Warn("Request rejected", fields...)
		}

		c.String(status, message)
	}
}

// Recovery turns panics into a logged 500.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Log.Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", RequestIDFrom(c)),
		)
		c.String(http.StatusInternalServerError, genericErrorMessage)
		c.Abort()
	})
}
