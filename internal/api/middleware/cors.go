package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// CORS wraps the rs/cors handler as gin middleware. Allowed origins come
// from CORS_ALLOWED_ORIGINS (comma-separated); empty means any origin,
// which is fine for local development.
func CORS() gin.HandlerFunc {
	opts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Accept"},
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		opts.AllowedOrigins = strings.Split(origins, ",")
	} else {
		opts.AllowedOrigins = []string{"*"}
	}
	h := cors.New(opts)

	return func(c *gin.Context) {
		h.HandlerFunc(c.Writer, c.Request)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
