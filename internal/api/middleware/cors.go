package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowHeaders = "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With"
	corsAllowMethods = "POST, OPTIONS, GET, PUT, DELETE"
)

// CORSConfig controls which origins may call the API from a browser.
type CORSConfig struct {
	AllowedOrigins  []string
	AllowAllOrigins bool
}

func (cfg CORSConfig) allows(origin string) bool {
	for _, allowed := range cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// CORS returns a middleware that sets cross-origin headers and answers
// preflight requests. With AllowAllOrigins the wildcard origin is sent
// and credentials are disabled, as the two cannot be combined.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.Writer.Header()

		switch {
		case cfg.AllowAllOrigins:
			header.Set("Access-Control-Allow-Origin", "*")
			header.Set("Access-Control-Allow-Credentials", "false")
		default:
			origin := c.Request.Header.Get("Origin")
			if len(cfg.AllowedOrigins) > 0 && !cfg.allows(origin) {
				c.Next()
				return
			}
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Credentials", "true")
		}

		header.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		header.Set("Access-Control-Allow-Methods", corsAllowMethods)
		header.Set("Access-Control-Expose-Headers", "Content-Length")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
