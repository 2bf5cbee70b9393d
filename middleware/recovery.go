package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jasonknight/space-mmo-sub002/result"
	"go.uber.org/zap"
)

// Recovery turns a handler panic into a 500 carrying an INTERNAL_ERROR
// result.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					zap.Any("error", r),
					zap.String("trace_id", GetTraceID(c)),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					result.Fail(result.InternalError, "internal server error"))
			}
		}()
		c.Next()
	}
}
