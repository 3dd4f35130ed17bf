package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/fiscalpulse/internal/domain/dto"
	"github.com/guttosm/fiscalpulse/internal/logger"
)

// HTTPError carries the status and public message for an error attached with c.Error.
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *HTTPError) Unwrap() error { return e.Err }

// AbortWithError stops the chain and writes a dto.ErrorResponse.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		logger.L().Error().Str("request_id", RequestIDOf(c)).Int("status", status).Err(err).Msg(message)
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}

// ErrorHandler renders the last error attached with c.Error when the handler
// did not write a response itself. *HTTPError keeps its status, a deadline
// becomes 504 and anything else 500.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}
	err := c.Errors.Last().Err

	var he *HTTPError
	switch {
	case errors.As(err, &he):
		AbortWithError(c, he.Status, he.Message, he.Err)
	case errors.Is(err, context.DeadlineExceeded):
		AbortWithError(c, http.StatusGatewayTimeout, "request timed out", err)
	default:
		AbortWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}

// Timeout bounds the request context; handlers observe it through
// c.Request.Context().
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
