package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

// routeParams are copied onto the request log line when the matched route
// declares them.
var routeParams = []string{"branch_id", "member_id", "zone_id"}

// quietRoutes are logged at debug level unless they fail.
var quietRoutes = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// Logger writes one line per request. Failures are logged by status class
// and successful calls on branch routes at info.
func Logger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"route", route,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		for _, name := range routeParams {
			if v := c.Param(name); v != "" {
				args = append(args, name, v)
			}
		}
		if v, ok := c.Get(ContextKeyAPIVersion); ok {
			args = append(args, "api_version", v)
		}
		if v, ok := c.Get(RequestIDKey); ok {
			args = append(args, "request_id", v)
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}

		_, quiet := quietRoutes[route]
		switch {
		case status >= 500:
			log.Errorw("request failed", args...)
		case status >= 400:
			log.Warnw("request rejected", args...)
		case quiet || route == "":
			log.Debugw("request served", args...)
		case c.Param("branch_id") != "":
			log.Infow("branch request served", args...)
		default:
			log.Debugw("request served", args...)
		}
	}
}
