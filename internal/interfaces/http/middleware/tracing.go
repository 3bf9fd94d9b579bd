// Package middleware provides the gin middleware chain of the stock ledger API.
package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const unmatchedRoute = "unmatched"

// TracingConfig configures Tracing.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// SkipRoutes lists route templates (as registered, e.g. "/health")
	// that never get a span.
	SkipRoutes []string
}

// DefaultTracingConfig traces every route except the health probes.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "stock-ledger",
		Enabled:     true,
		SkipRoutes:  []string{"/health", "/api/v1/health"},
	}
}

// Tracing returns the tracing middleware with DefaultTracingConfig.
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig())
}

// TracingWithConfig starts a server span per request through otelgin, named
// "METHOD route". The span ends when the handler chain returns, so tagging it
// is left to AnnotateSpan further down the chain.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return otelgin.Middleware(cfg.ServiceName,
		otelgin.WithSpanNameFormatter(spanName),
		otelgin.WithGinFilter(func(c *gin.Context) bool {
			return !slices.Contains(cfg.SkipRoutes, c.FullPath())
		}),
	)
}

func spanName(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		route = unmatchedRoute
	}
	return c.Request.Method + " " + route
}

// annotate copies the request and actor IDs onto the active span.
func annotate(c *gin.Context) {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		return
	}
	if id := GetRequestID(c); id != "" {
		span.SetAttributes(attribute.String("request_id", id))
	}
	if actor := GetJWTUserID(c); actor != "" {
		span.SetAttributes(attribute.String("actor_id", actor))
	}
}

var statusDescriptions = map[int]string{
	http.StatusUnauthorized: "Unauthorized",
	http.StatusNotFound:     "Not Found",
	http.StatusConflict:     "Conflict",
}

// MarkSpanErrors sets an error status on the request span for 4xx and 5xx
// responses. Place it after Tracing.
func MarkSpanErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		desc, ok := statusDescriptions[status]
		switch {
		case status >= http.StatusInternalServerError:
			desc = "Internal Server Error"
		case !ok:
			desc = "Client Error"
		}
		span.SetStatus(codes.Error, desc)
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}

// AnnotateSpan tags the span with the actor resolved by JWTAuth. Place it
// after both Tracing and JWTAuth.
func AnnotateSpan() gin.HandlerFunc {
	return func(c *gin.Context) {
		annotate(c)
		c.Next()
	}
}
