// Package middleware holds the gin middleware of the admin status server.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	TraceIDKey    = "trace_id"
	TraceIDHeader = "X-Trace-ID"
)

// maxTraceIDLen bounds a caller supplied trace id.
const maxTraceIDLen = 64

// TraceID tags every request with a trace id, reusing a well formed
// X-Trace-ID header and generating a uuid otherwise.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(TraceIDHeader)
		if !validTraceID(id) {
			id = uuid.NewString()
		}
		c.Set(TraceIDKey, id)
		c.Header(TraceIDHeader, id)
		c.Next()
	}
}

func validTraceID(id string) bool {
	if id == "" || len(id) > maxTraceIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		ch := id[i]
		if ch <= ' ' || ch > '~' {
			return false
		}
	}
	return true
}

// GetTraceID returns the trace id set by TraceID, or "".
func GetTraceID(c *gin.Context) string {
	id, _ := c.Get(TraceIDKey)
	s, _ := id.(string)
	return s
}
