package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/fiscalpulse/internal/domain/dto"
	"github.com/guttosm/fiscalpulse/internal/logger"
)

// RecoveryMiddleware turns a panic into a logged 500. The panic value and
// stack stay in the log; the client only gets the request id to quote.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			id := RequestIDOf(c)
			logger.L().Error().
				Str("request_id", id).
				Str("method", c.Request.Method).
				Str("path", c.FullPath()).
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			var detail error
			if id != "" {
				detail = fmt.Errorf("request %s", id)
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse("internal server error", detail))
		}()

		c.Next()
	}
}
