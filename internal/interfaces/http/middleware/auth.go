package middleware

import (
	"strings"
	"time"

	"github.com/erp/quotedesk/internal/infrastructure/httpclient"
	"github.com/erp/quotedesk/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenPassthrough forwards the caller's bearer token to backend requests
// made while serving the request. Requests without a token fall back to the
// configured token source. Tokens are never verified here; the backend does
// that.
func TokenPassthrough() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}

		if exp, ok := httpclient.TokenExpiry(token); ok && time.Now().After(exp) {
			logger.L(c.Request.Context()).Warn("Forwarding an expired token",
				zap.Time("expired_at", exp))
		}

		c.Request = c.Request.WithContext(httpclient.WithToken(c.Request.Context(), token))
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
