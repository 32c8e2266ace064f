package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"basegraph.app/coplie/common/logger"
)

const DefaultRequestIDHeader = "X-Request-Id"

// RequestIDKey is the gin context key the request id is stored under.
const RequestIDKey = "request_id"

// RequestID tags each request with a correlation id. An incoming header value
// is kept so ids survive proxies; otherwise a UUID is generated. The id is
// echoed on the response and attached to the request context's log fields.
func RequestID(header string) gin.HandlerFunc {
	if header == "" {
		header = DefaultRequestIDHeader
	}

	return func(c *gin.Context) {
		requestID := c.GetHeader(header)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}

		c.Set(RequestIDKey, requestID)
		c.Header(header, requestID)

		ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
			RequestID: logger.Ptr(requestID),
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
