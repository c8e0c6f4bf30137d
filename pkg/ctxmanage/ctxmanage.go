package ctxmanage

import (
	"github.com/gin-gonic/gin"
)

type key string

// TraceIdKey is set on the gin context by the logger middleware.
const TraceIdKey key = "trace_id"

// GetTraceIdOfRequest returns the trace id stamped on the request by the
// logger middleware, or "unknown" if the middleware did not run.
func GetTraceIdOfRequest(c *gin.Context) string {
	v, ok := c.Get(string(TraceIdKey))
	if !ok {
		return "unknown"
	}
	traceId, ok := v.(string)
	if !ok {
		return "unknown"
	}
	return traceId
}
