package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Gin context keys shared with the HTTP middleware.
const (
	GinLoggerKey    = "logger"
	GinRequestIDKey = "request_id"
	GinActorIDKey   = "actor_id"
)

// internalErrorCode matches the wire code of unexpected failures.
const internalErrorCode = "ERR_INTERNAL"

// GinMiddleware writes one access log entry per request. Before the handlers
// run it installs a request logger in the gin context and in the request
// context, where services pick it up with L(ctx).
func GinMiddleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetString(GinRequestIDKey)

		reqLogger := base.With(
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		ctx := WithContext(c.Request.Context(), reqLogger)
		if requestID != "" {
			ctx = ContextWithRequestID(ctx, requestID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Set(GinLoggerKey, reqLogger)

		c.Next()

		status := c.Writer.Status()
		ce := reqLogger.Check(accessLevel(status), "HTTP Request")
		if ce == nil {
			return
		}
		ce.Write(accessFields(c, status, time.Since(start), requestID)...)
	}
}

func accessLevel(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

func accessFields(c *gin.Context, status int, latency time.Duration, requestID string) []zap.Field {
	fields := make([]zap.Field, 0, 9)
	fields = append(fields,
		zap.Int("status", status),
		zap.Duration("latency", latency),
		zap.String("client_ip", c.ClientIP()),
		zap.String("user_agent", c.Request.UserAgent()),
		zap.Int("body_size", c.Writer.Size()),
	)
	optional := []struct{ key, value string }{
		{"request_id", requestID},
		{"actor_id", c.GetString(GinActorIDKey)},
		{"query", c.Request.URL.RawQuery},
	}
	for _, o := range optional {
		if o.value != "" {
			fields = append(fields, zap.String(o.key, o.value))
		}
	}
	if len(c.Errors) > 0 {
		fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
	}
	return fields
}

// Recovery turns a handler panic into a logged error and a 500 envelope.
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			requestID := c.GetString(GinRequestIDKey)
			WithLogger(c.Request.Context(), base).Error("Panic recovered",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("panic", recovered),
				zap.Stack("stacktrace"),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":       internalErrorCode,
					"message":    "An internal error occurred",
					"request_id": requestID,
				},
			})
		}()
		c.Next()
	}
}

// GetGinLogger returns the request logger installed by GinMiddleware, or a
// no-op logger outside of it.
func GetGinLogger(c *gin.Context) *zap.Logger {
	v, _ := c.Get(GinLoggerKey)
	if l, ok := v.(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
