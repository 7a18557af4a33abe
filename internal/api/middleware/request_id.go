package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey gin context key holding the request id
const RequestIDKey = "request_id"

// longer client-supplied ids are replaced to keep log lines bounded
const requestIDMaxLen = 64

// RequestID reuses X-Request-ID when sane, otherwise generates a UUID, and
// echoes it in the response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" || len(rid) > requestIDMaxLen {
			rid = uuid.NewString()
		}

		c.Set(RequestIDKey, rid)
		c.Header("X-Request-ID", rid)

		c.Next()
	}
}
