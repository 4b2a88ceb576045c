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

// newLoggedRouter returns a router with GinMiddleware installed and the
// observer capturing what it logs.
func newLoggedRouter(level zapcore.Level, middlewares ...gin.HandlerFunc) (*gin.Engine, *observer.ObservedLogs) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(level)

	router := gin.New()
	router.Use(middlewares...)
	router.Use(GinMiddleware(zap.New(core)))
	return router, logs
}

// requestLog finds the HTTP Request entry among the recorded logs.
func requestLog(t *testing.T, logs *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1, "expected exactly one HTTP Request entry")
	return entries[0]
}

func serve(router *gin.Engine, method, target string, header map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestGinMiddleware_Fields(t *testing.T) {
	router, logs := newLoggedRouter(zapcore.InfoLevel)
	router.POST("/api/v1/parties", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"id": 1})
	})

	w := serve(router, "POST", "/api/v1/parties", map[string]string{"User-Agent": "Test-Agent/1.0"})
	require.Equal(t, http.StatusCreated, w.Code)

	entry := requestLog(t, logs)
	assert.Equal(t, zapcore.InfoLevel, entry.Level)

	fields := entry.ContextMap()
	assert.Equal(t, int64(http.StatusCreated), fields["status"])
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/api/v1/parties", fields["path"])
	assert.Equal(t, "Test-Agent/1.0", fields["user_agent"])
	assert.Contains(t, fields, "latency")
	assert.Contains(t, fields, "client_ip")
	assert.Contains(t, fields, "body_size")
}

func TestGinMiddleware_RequestID(t *testing.T) {
	router, logs := newLoggedRouter(zapcore.InfoLevel, func(c *gin.Context) {
		// simulating the RequestID middleware
		c.Set("request_id", "test-req-123")
		c.Next()
	})
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	serve(router, "GET", "/test", nil)

	assert.Equal(t, "test-req-123", requestLog(t, logs).ContextMap()["request_id"])
}

func TestGinMiddleware_AuthenticatedUser(t *testing.T) {
	router, logs := newLoggedRouter(zapcore.InfoLevel)
	router.GET("/test", func(c *gin.Context) {
		// simulating the JWT middleware having identified the caller
		c.Set("jwt_user_id", "5f2d1c3a-0000-0000-0000-000000000001")
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	serve(router, "GET", "/test", nil)

	assert.Equal(t, "5f2d1c3a-0000-0000-0000-000000000001", requestLog(t, logs).ContextMap()["user_id"])
}

func TestGinMiddleware_QueryAndRoute(t *testing.T) {
	router, logs := newLoggedRouter(zapcore.InfoLevel)
	router.GET("/parties/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	serve(router, "GET", "/parties/42?include=contacts", nil)

	fields := requestLog(t, logs).ContextMap()
	assert.Equal(t, "include=contacts", fields["query"])
	assert.Equal(t, "/parties/:id", fields["route"])
	assert.Equal(t, "/parties/42", fields["path"])
}

func TestGinMiddleware_StatusLevels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  zapcore.Level
	}{
		{"2xx logs at info", http.StatusOK, zapcore.InfoLevel},
		{"4xx logs at warn", http.StatusBadRequest, zapcore.WarnLevel},
		{"5xx logs at error", http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, logs := newLoggedRouter(zapcore.DebugLevel)
			router.GET("/test", func(c *gin.Context) {
				c.JSON(tt.status, gin.H{})
			})

			serve(router, "GET", "/test", nil)

			assert.Equal(t, tt.level, requestLog(t, logs).Level)
		})
	}
}

func TestGinMiddleware_PropagatesLoggerToRequestContext(t *testing.T) {
	router, logs := newLoggedRouter(zapcore.InfoLevel)
	router.GET("/test", func(c *gin.Context) {
		// services reached through c.Request.Context() see the scoped logger
		FromContext(c.Request.Context()).Info("inside handler")
		c.JSON(http.StatusOK, gin.H{})
	})

	serve(router, "GET", "/test", nil)

	entries := logs.FilterMessage("inside handler").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "/test", entries[0].ContextMap()["path"])
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	var w *httptest.ResponseRecorder
	assert.NotPanics(t, func() {
		w = serve(router, "GET", "/panic", nil)
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	entries := logs.FilterMessage("Panic recovered").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/panic", fields["path"])
	assert.Contains(t, fields, "stacktrace")
}

func TestGetGinLogger(t *testing.T) {
	t.Run("middleware installed", func(t *testing.T) {
		router, _ := newLoggedRouter(zapcore.InfoLevel)

		var retrieved *zap.Logger
		router.GET("/test", func(c *gin.Context) {
			retrieved = GetGinLogger(c)
			c.JSON(http.StatusOK, gin.H{})
		})

		serve(router, "GET", "/test", nil)
		assert.NotNil(t, retrieved)
	})

	t.Run("middleware absent yields no-op", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		router := gin.New()

		var retrieved *zap.Logger
		router.GET("/test", func(c *gin.Context) {
			retrieved = GetGinLogger(c)
			c.JSON(http.StatusOK, gin.H{})
		})

		serve(router, "GET", "/test", nil)

		require.NotNil(t, retrieved)
		assert.NotPanics(t, func() { retrieved.Info("test") })
	})
}
