package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-mgmt-api/pkg/middleware/requestid"
)

const responseMetaKey = "response_meta"

// WithResponseMeta seeds the meta block echoed by handlers that return it. It must run after
// the request id middleware.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := map[string]interface{}{
			"requestedAt": time.Now().UTC().Format(time.RFC3339),
		}
		if id := requestid.Value(c); id != "" {
			meta["requestId"] = id
		}
		c.Set(responseMetaKey, meta)
		c.Next()
	}
}

// SetMeta records a single meta value for the current request.
func SetMeta(c *gin.Context, key string, value interface{}) {
	meta, ok := metaOf(c)
	if !ok {
		meta = map[string]interface{}{}
		c.Set(responseMetaKey, meta)
	}
	meta[key] = value
}

// ExtractMeta returns a copy of the request meta, nil when WithResponseMeta was not installed.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	meta, ok := metaOf(c)
	if !ok {
		return nil
	}
	out := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}

func metaOf(c *gin.Context) (map[string]interface{}, bool) {
	v, exists := c.Get(responseMetaKey)
	if !exists {
		return nil, false
	}
	meta, ok := v.(map[string]interface{})
	return meta, ok
}
