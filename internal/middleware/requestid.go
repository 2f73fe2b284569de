package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/cjenolov/route-service/internal/pkg/reqid"
)

// RequestIDKey is the gin context key holding the request ID.
const RequestIDKey = "request_id"

// RequestIDHeader is the response header carrying the request ID.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware assigns every request a unique, time-sortable ID.
// An incoming X-Request-ID is honored so callers can correlate across
// services; otherwise a fresh one is generated.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = reqid.New()
		}

		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)

		c.Next()
	}
}

// RequestID returns the request ID from the gin context, or an empty
// string if the middleware did not run.
func RequestID(c *gin.Context) string {
	if id, ok := c.Get(RequestIDKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
