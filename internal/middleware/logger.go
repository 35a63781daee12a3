package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the gin context key carrying the request's correlation id.
const RequestIDKey = "request_id"

// RequestID propagates an X-Request-ID header, minting one when the caller
// sent none.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(RequestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// Health probes poll every few seconds; logging them drowns the real
// traffic.
var unloggedPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
}

// Logger writes one component-prefixed line per request, matching the
// service layer's log format.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if unloggedPaths[c.Request.URL.Path] {
			return
		}
		log.Printf("http: %s %s %d %s rid=%s",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start),
			c.GetString(RequestIDKey),
		)
	}
}

// Recovery recovers from panics and returns a 500 error.
func Recovery() gin.HandlerFunc {
	return gin.Recovery()
}
