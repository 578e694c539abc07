package middleware

import (
	"farmavida-master/pkg/errutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error renders the last error attached to the context. Internal causes are
// logged, never written to the response.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		base := errutil.From(last.Err)
		status := base.Code.HTTPStatus()
		if status >= 500 {
			zap.L().Error("request failed",
				zap.String("path", c.FullPath()),
				zap.String("method", c.Request.Method),
				zap.String("code", string(base.Code)),
				zap.String("reason", base.Reason),
				zap.Error(last.Err),
			)
		}

		c.AbortWithStatusJSON(status, base.JSON())
	}
}
