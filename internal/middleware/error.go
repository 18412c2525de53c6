package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ErrorHandler logs errors attached to the context. Handlers translate
// application errors to responses themselves; anything recorded via
// c.Error is an unexpected failure worth a log line with request
// context.
func ErrorHandler(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		requestID := c.GetString("request_id")
		for _, e := range c.Errors {
			log.Error().
				Err(e.Err).
				Str("request_id", requestID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Str("client_ip", c.ClientIP()).
				Msg("request error")
		}
	}
}
