package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const allowedHeaders = "Authorization, Content-Type, X-Requested-With, X-Request-ID"
const allowedMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"

// New builds a CORS middleware from the configured origin list. An empty
// list allows every origin.
func New(origins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[normalize(o)] = struct{}{}
	}

	return func(c *gin.Context) {
		header := c.Writer.Header()
		header.Set("Vary", "Origin")
		header.Set("Access-Control-Allow-Credentials", "true")
		header.Set("Access-Control-Allow-Headers", allowedHeaders)
		header.Set("Access-Control-Allow-Methods", allowedMethods)
		header.Set("Access-Control-Max-Age", "600")

		switch origin := c.GetHeader("Origin"); {
		case origin == "" && len(allowed) == 0:
			header.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && originAllowed(allowed, origin):
			header.Set("Access-Control-Allow-Origin", origin)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func originAllowed(allowed map[string]struct{}, origin string) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[normalize(origin)]
	return ok
}

func normalize(origin string) string {
	return strings.TrimRight(origin, "/")
}
