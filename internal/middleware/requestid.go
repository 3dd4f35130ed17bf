package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
)

// RequestID tags each request with an identifier stored under RequestIDKey
// and echoed in the X-Request-ID response header. A well-formed UUID sent by
// the client is kept so uploads can be traced across hops; anything else is
// replaced with a fresh v4 UUID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// RequestIDOf returns the id set by RequestID, or "".
func RequestIDOf(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
