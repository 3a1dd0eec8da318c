package middleware

import (
	"github.com/erp/quotedesk/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request
func Tracing(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// SpanAttributes tags the server span with the request and quote IDs and
// marks it failed for 5xx responses. Place it after Tracing and RequestID.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if id := c.GetString(logger.GinRequestIDKey); id != "" {
				span.SetAttributes(attribute.String("request_id", id))
			}
			if id := c.Param("id"); id != "" {
				span.SetAttributes(attribute.String("resource_id", id))
			}
		}

		c.Next()

		if span.IsRecording() && c.Writer.Status() >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
	}
}
