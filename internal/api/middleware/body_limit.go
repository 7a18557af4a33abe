package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-lms/backend/pkg/response"
)

// BodyLimit caps request bodies at maxBytes. Handlers that hit the cap while
// binding leave a *http.MaxBytesError in c.Errors; if they wrote nothing yet
// the request is answered with 413.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil && maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()

		if c.IsAborted() || c.Writer.Written() {
			return
		}
		for _, ginErr := range c.Errors {
			var tooLarge *http.MaxBytesError
			if errors.As(ginErr.Err, &tooLarge) {
				response.Error(c, http.StatusRequestEntityTooLarge, 10005, "request body too large")
				return
			}
		}
	}
}
