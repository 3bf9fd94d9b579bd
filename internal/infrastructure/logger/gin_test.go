package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func findEntry(t *testing.T, recorded *observer.ObservedLogs, msg string) observer.LoggedEntry {
	t.Helper()
	entries := recorded.FilterMessage(msg).All()
	require.Len(t, entries, 1, "expected one %q entry", msg)
	return entries[0]
}

func TestGinMiddleware_LevelsByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusUnprocessableEntity, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			router := gin.New()
			router.Use(GinMiddleware(zap.New(core)))
			router.GET("/stock/movements", func(c *gin.Context) { c.Status(tt.status) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stock/movements?page=2", nil))

			entry := findEntry(t, recorded, "HTTP Request")
			assert.Equal(t, tt.level, entry.Level)
			fields := entry.ContextMap()
			assert.Equal(t, int64(tt.status), fields["status"])
			assert.Equal(t, "page=2", fields["query"])
			assert.Equal(t, "/stock/movements", fields["path"])
		})
	}
}

func TestGinMiddleware_PropagatesLoggerAndIDs(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(GinRequestIDKey, "req-42")
		c.Next()
	})
	router.Use(GinMiddleware(zap.New(core)))
	router.POST("/stock/adjustments", func(c *gin.Context) {
		c.Set(GinActorIDKey, "actor-7")
		assert.Equal(t, "req-42", GetRequestID(c.Request.Context()))
		L(c.Request.Context()).Info("from service")
		assert.NotNil(t, GetGinLogger(c))
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/stock/adjustments", nil))
	require.Equal(t, http.StatusCreated, w.Code)

	service := findEntry(t, recorded, "from service")
	assert.Equal(t, "req-42", service.ContextMap()["request_id"])

	request := findEntry(t, recorded, "HTTP Request")
	assert.Equal(t, "req-42", request.ContextMap()["request_id"])
	assert.Equal(t, "actor-7", request.ContextMap()["actor_id"])
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(GinRequestIDKey, "req-panic")
		c.Request = c.Request.WithContext(ContextWithRequestID(c.Request.Context(), "req-panic"))
		c.Next()
	})
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"ERR_INTERNAL"`)
	assert.Contains(t, w.Body.String(), `"request_id":"req-panic"`)
	entry := findEntry(t, recorded, "Panic recovered")
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "req-panic", entry.ContextMap()["request_id"])
	assert.Equal(t, "boom", entry.ContextMap()["panic"])
}

func TestGinMiddleware_SuppressedBelowLevel(t *testing.T) {
	core, recorded := observer.New(zapcore.WarnLevel)
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/stock/movements", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/stock/movements/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/stock/movements", nil))
	assert.Zero(t, recorded.Len())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/stock/movements/missing", nil))
	entry := findEntry(t, recorded, "HTTP Request")
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.NotContains(t, entry.ContextMap(), "query")
}

func TestGetGinLogger_NotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}
