// Package middleware provides the Gin middleware chain for the HTTP surface:
// request identity, tenant authentication, admin authentication and
// observability.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rampartlabs/rampart/pkg/constants"
)

// RequestID ensures every request carries an ID. An inbound X-Request-ID is
// kept so callers can correlate retries; otherwise one is minted. The ID
// travels in the request context for log and audit correlation and is echoed
// on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(constants.HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		ctx := context.WithValue(c.Request.Context(), constants.ContextKeyRequestID, id)
		c.Request = c.Request.WithContext(ctx)
		c.Set(string(constants.ContextKeyRequestID), id)
		c.Writer.Header().Set(constants.HeaderRequestID, id)

		c.Next()
	}
}

// RequestIDOf returns the request ID assigned by RequestID, or empty.
func RequestIDOf(c *gin.Context) string {
	return c.GetString(string(constants.ContextKeyRequestID))
}
