package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// APIKeyAuth accepts X-API-Key, an Authorization bearer token, or an api_key
// query parameter for browser WebSocket clients that cannot set headers. With
// no keys configured every request passes.
func APIKeyAuth(keys []string, log *logrus.Logger) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			allowed[k] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		if len(allowed) == 0 {
			c.Next()
			return
		}

		key := c.GetHeader("X-API-Key")
		if key == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				key = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if key == "" {
			key = c.Query("api_key")
		}

		if key == "" {
			log.WithField("path", c.FullPath()).Warn("api key missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "api key required"})
			return
		}
		if _, ok := allowed[key]; !ok {
			log.WithField("path", c.FullPath()).Warn("invalid api key")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}

		c.Next()
	}
}
