package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

// setupTestTracer installs an in-memory tracer provider and returns its
// span recorder.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
	})

	return sr
}

// findSpan returns the ended span with the given name, or nil.
func findSpan(sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	for _, span := range sr.Ended() {
		if span.Name() == name {
			return span
		}
	}
	return nil
}

// spanAttr returns the string value of a span attribute and whether it exists.
func spanAttr(span sdktrace.ReadOnlySpan, key string) (string, bool) {
	for _, attr := range span.Attributes() {
		if string(attr.Key) == key {
			return attr.Value.AsString(), true
		}
	}
	return "", false
}

func serveTraced(handler gin.HandlerFunc, extra ...gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: true, ServiceName: "test-service"}))
	for _, mw := range extra {
		router.Use(mw)
	}
	router.GET("/test", handler)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)
	return w
}

func TestTracingWithConfig(t *testing.T) {
	t.Run("disabled config passes requests through", func(t *testing.T) {
		gin.SetMode(gin.TestMode)

		router := gin.New()
		router.Use(TracingWithConfig(TracingConfig{Enabled: false, ServiceName: "test-service"}))
		router.GET("/test", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "ok"})
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("enabled config records a span per request", func(t *testing.T) {
		sr := setupTestTracer(t)

		w := serveTraced(func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "ok"})
		})

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, findSpan(sr, "GET /test"), "HTTP span not found")
	})

	t.Run("request ID from the header ends up on the span", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		sr := setupTestTracer(t)

		router := gin.New()
		router.Use(RequestID())
		router.Use(TracingWithConfig(TracingConfig{Enabled: true, ServiceName: "test-service"}))
		router.Use(TracingAttributeInjector())
		router.GET("/test", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "ok"})
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Request-ID", "test-request-id-123")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		span := findSpan(sr, "GET /test")
		require.NotNil(t, span)
		got, ok := spanAttr(span, "request_id")
		require.True(t, ok, "request_id attribute not found in span")
		assert.Equal(t, "test-request-id-123", got)
	})

	t.Run("user ID from JWT claims ends up on the span", func(t *testing.T) {
		sr := setupTestTracer(t)

		w := serveTraced(
			func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "ok"})
			},
			func(c *gin.Context) {
				c.Set(JWTUserIDKey, "user-123")
				c.Next()
			},
			TracingAttributeInjector(),
		)

		assert.Equal(t, http.StatusOK, w.Code)

		span := findSpan(sr, "GET /test")
		require.NotNil(t, span)
		got, ok := spanAttr(span, "user_id")
		require.True(t, ok, "user_id attribute not found in span")
		assert.Equal(t, "user-123", got)
	})
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		description string
	}{
		{"400 is marked as a client error", http.StatusBadRequest, "Client Error"},
		{"401 is marked as unauthorized", http.StatusUnauthorized, "Unauthorized"},
		{"403 is marked as forbidden", http.StatusForbidden, "Forbidden"},
		{"404 is marked as not found", http.StatusNotFound, "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := setupTestTracer(t)

			w := serveTraced(func(c *gin.Context) {
				c.JSON(tt.status, gin.H{"error": "failed"})
			}, SpanErrorMarker())

			assert.Equal(t, tt.status, w.Code)

			span := findSpan(sr, "GET /test")
			require.NotNil(t, span)
			assert.Equal(t, codes.Error, span.Status().Code)
			assert.Equal(t, tt.description, span.Status().Description)
		})
	}

	t.Run("500 is marked with an error status", func(t *testing.T) {
		sr := setupTestTracer(t)

		w := serveTraced(func(c *gin.Context) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}, SpanErrorMarker())

		assert.Equal(t, http.StatusInternalServerError, w.Code)

		// otelgin may set the description itself for 5xx, so only the code
		// is asserted here
		span := findSpan(sr, "GET /test")
		require.NotNil(t, span)
		assert.Equal(t, codes.Error, span.Status().Code)
	})

	t.Run("success responses are left unmarked", func(t *testing.T) {
		sr := setupTestTracer(t)

		w := serveTraced(func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "ok"})
		}, SpanErrorMarker())

		assert.Equal(t, http.StatusOK, w.Code)

		span := findSpan(sr, "GET /test")
		require.NotNil(t, span)
		assert.NotEqual(t, codes.Error, span.Status().Code)
	})

	t.Run("a non-recording span does not panic", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		otel.SetTracerProvider(noop.NewTracerProvider())

		router := gin.New()
		router.Use(SpanErrorMarker())
		router.GET("/test", func(c *gin.Context) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "error"})
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()

	assert.Equal(t, "backoffice-backend", cfg.ServiceName)
	assert.True(t, cfg.Enabled)
}

func TestTracing_DefaultConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(Tracing())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.GreaterOrEqual(t, len(sr.Ended()), 1)
}

func TestGetRequestID(t *testing.T) {
	serve := func(prime gin.HandlerFunc, header string) *httptest.ResponseRecorder {
		gin.SetMode(gin.TestMode)

		router := gin.New()
		if prime != nil {
			router.Use(prime)
		}
		router.GET("/test", func(c *gin.Context) {
			requestID := getRequestID(c)
			c.JSON(http.StatusOK, gin.H{"request_id": requestID, "length": len(requestID)})
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		if header != "" {
			req.Header.Set("X-Request-ID", header)
		}
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("context value wins over the header", func(t *testing.T) {
		w := serve(func(c *gin.Context) {
			c.Set("request_id", "context-request-id")
			c.Next()
		}, "header-request-id")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "context-request-id")
	})

	t.Run("header is used when no context value is set", func(t *testing.T) {
		w := serve(nil, "header-request-id")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "header-request-id")
	})

	t.Run("oversized header is truncated", func(t *testing.T) {
		w := serve(nil, strings.Repeat("b", 2*MaxRequestIDLength))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"length":128`)
	})
}

func TestGetUserID(t *testing.T) {
	serve := func(prime gin.HandlerFunc) *httptest.ResponseRecorder {
		gin.SetMode(gin.TestMode)

		router := gin.New()
		if prime != nil {
			router.Use(prime)
		}
		router.GET("/test", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"user_id": getUserID(c)})
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("returns the ID set by the JWT middleware", func(t *testing.T) {
		w := serve(func(c *gin.Context) {
			c.Set(JWTUserIDKey, "jwt-user-id")
			c.Next()
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "jwt-user-id")
	})

	t.Run("empty when no claims are present", func(t *testing.T) {
		w := serve(nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":""`)
	})
}

func TestTracingAttributeInjector_WithNoSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(TracingAttributeInjector())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
