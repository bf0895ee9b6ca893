package http_cors_middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

// AllowOrigins answers CORS preflights and echoes the request origin when it
// is listed. A "*" entry allows any origin.
func AllowOrigins(origins []string) gin.HandlerFunc {
	anyOrigin := slices.Contains(origins, "*")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (anyOrigin || slices.Contains(origins, origin)) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
