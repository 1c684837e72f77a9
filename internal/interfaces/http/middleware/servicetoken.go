package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gymdesk/accessbridge/internal/shared/logger"
	"github.com/gymdesk/accessbridge/internal/shared/utils"
)

// ServiceTokenMiddleware guards machine-to-machine routes with static
// tokens from configuration. With no tokens configured every request passes.
type ServiceTokenMiddleware struct {
	tokens [][]byte
	logger logger.Interface
}

func NewServiceTokenMiddleware(tokens []string, log logger.Interface) *ServiceTokenMiddleware {
	m := &ServiceTokenMiddleware{logger: log}
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			m.tokens = append(m.tokens, []byte(t))
		}
	}
	return m
}

// RequireToken reads a Bearer token, falling back to the "token" query
// parameter for vendors that cannot set headers on webhooks.
func (m *ServiceTokenMiddleware) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(m.tokens) == 0 {
			c.Next()
			return
		}

		var token string
		if parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
		if token == "" {
			token = c.Query("token")
		}

		if token == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
			c.Abort()
			return
		}
		if !m.valid(token) {
			m.logger.Warnw("service token rejected", "ip", c.ClientIP(), "path", c.Request.URL.Path)
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid authorization token")
			c.Abort()
			return
		}

		c.Next()
	}
}

func (m *ServiceTokenMiddleware) valid(token string) bool {
	got := []byte(token)
	ok := false
	for _, t := range m.tokens {
		if subtle.ConstantTimeCompare(got, t) == 1 {
			ok = true
		}
	}
	return ok
}
