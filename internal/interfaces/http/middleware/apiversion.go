package middleware

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gymdesk/accessbridge/internal/shared/utils"
)

const (
	HeaderAPIVersion     = "X-API-Version"
	ContextKeyAPIVersion = "api_version"

	CurrentAPIVersion = 1
	MinAPIVersion     = 1
)

var acceptVersionRegex = regexp.MustCompile(`application/vnd\.accessbridge\.v(\d+)\+json`)

// APIVersion resolves the requested API version from X-API-Version or an
// "application/vnd.accessbridge.vN+json" Accept header and echoes it back.
// Requests without either get the current version; an explicit version
// outside the supported range is rejected with 406.
func APIVersion() gin.HandlerFunc {
	return func(c *gin.Context) {
		version, ok := resolveAPIVersion(c)
		if !ok {
			utils.ErrorResponse(c, http.StatusNotAcceptable, "unsupported api version")
			c.Abort()
			return
		}
		c.Set(ContextKeyAPIVersion, version)
		c.Header(HeaderAPIVersion, strconv.Itoa(version))
		c.Next()
	}
}

// GetAPIVersion returns the resolved version, or CurrentAPIVersion when the
// middleware did not run.
func GetAPIVersion(c *gin.Context) int {
	if v, ok := c.Get(ContextKeyAPIVersion); ok {
		if ver, ok := v.(int); ok {
			return ver
		}
	}
	return CurrentAPIVersion
}

func resolveAPIVersion(c *gin.Context) (int, bool) {
	raw := c.GetHeader(HeaderAPIVersion)
	if raw == "" {
		if m := acceptVersionRegex.FindStringSubmatch(c.GetHeader("Accept")); len(m) == 2 {
			raw = m[1]
		}
	}
	if raw == "" {
		return CurrentAPIVersion, true
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < MinAPIVersion || v > CurrentAPIVersion {
		return 0, false
	}
	return v, true
}
