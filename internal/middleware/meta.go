package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-gradebook/pkg/logger"
)

const (
	responseMetaKey  = "response_meta"
	requestStartKey  = "request_start"
	degradedMetaFlag = "degraded"
)

// WithResponseMeta initialises response metadata storage on the request context.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetDegraded flags a response that was produced without the grade service. It also
// sets the fallback header so request logs can pick it up.
func SetDegraded(c *gin.Context, degraded bool) {
	if !degraded {
		return
	}
	ensureMeta(c)[degradedMetaFlag] = true
	c.Header(logger.FallbackHeader, "true")
}

// ExtractMeta returns the metadata collected for the current response, or nil when there is none.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	var meta map[string]interface{}
	if value, exists := c.Get(responseMetaKey); exists {
		meta, _ = value.(map[string]interface{})
	}
	if value, exists := c.Get(requestStartKey); exists {
		if start, ok := value.(time.Time); ok {
			if meta == nil {
				meta = ensureMeta(c)
			}
			meta["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	newMeta := make(map[string]interface{})
	c.Set(responseMetaKey, newMeta)
	return newMeta
}
