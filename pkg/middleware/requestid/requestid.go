package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const headerKey = "X-Request-ID"
const contextKey = "request_id"

// Middleware tags every request with an id, honoring one supplied by the
// caller in the X-Request-ID header. The id is echoed back in the response
// and stored in the context for the request logger.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerKey)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(contextKey, id)
		c.Writer.Header().Set(headerKey, id)

		c.Next()
	}
}

// Value reads the request id previously stored by Middleware, or "" when the
// middleware did not run.
func Value(c *gin.Context) string {
	if v, ok := c.Get(contextKey); ok {
		if id, isString := v.(string); isString {
			return id
		}
	}
	return ""
}
