package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(mw gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw)
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.POST("/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func doRequest(router *gin.Engine, method, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)
		defer limiter.Stop()

		for i := 0; i < 5; i++ {
			assert.True(t, limiter.Allow("client1"), "request %d should be allowed", i+1)
		}
	})

	t.Run("blocks requests exceeding limit", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute)
		defer limiter.Stop()

		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("client2"))
		}

		assert.False(t, limiter.Allow("client2"))
	})

	t.Run("separate limits per client", func(t *testing.T) {
		limiter := NewRateLimiter(2, time.Minute)
		defer limiter.Stop()

		assert.True(t, limiter.Allow("clientA"))
		assert.True(t, limiter.Allow("clientA"))
		assert.False(t, limiter.Allow("clientA"))

		assert.True(t, limiter.Allow("clientB"))
		assert.True(t, limiter.Allow("clientB"))
	})

	t.Run("resets after window", func(t *testing.T) {
		limiter := NewRateLimiter(2, 50*time.Millisecond)
		defer limiter.Stop()

		assert.True(t, limiter.Allow("client3"))
		assert.True(t, limiter.Allow("client3"))
		assert.False(t, limiter.Allow("client3"))

		time.Sleep(60 * time.Millisecond)

		assert.True(t, limiter.Allow("client3"))
	})

	t.Run("remaining returns correct count", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)
		defer limiter.Stop()

		assert.Equal(t, 5, limiter.Remaining("newclient"))

		limiter.Allow("newclient")
		limiter.Allow("newclient")

		assert.Equal(t, 3, limiter.Remaining("newclient"))
	})

	t.Run("concurrent access is safe", func(t *testing.T) {
		limiter := NewRateLimiter(100, time.Minute)
		defer limiter.Stop()

		var wg sync.WaitGroup
		allowed := 0
		var mu sync.Mutex

		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("concurrent-client") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}

		wg.Wait()
		assert.Equal(t, 100, allowed)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("allows requests within limit", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute)
		defer limiter.Stop()
		router := newLimitedRouter(RateLimit(limiter))

		for i := 0; i < 3; i++ {
			w := doRequest(router, "GET", "/test", "")
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})

	t.Run("returns 429 when limit exceeded", func(t *testing.T) {
		limiter := NewRateLimiter(2, time.Minute)
		defer limiter.Stop()
		router := newLimitedRouter(RateLimit(limiter))

		for i := 0; i < 2; i++ {
			w := doRequest(router, "GET", "/test", "")
			assert.Equal(t, http.StatusOK, w.Code)
		}

		w := doRequest(router, "GET", "/test", "")

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_RATE_LIMITED")
	})

	t.Run("includes rate limit headers", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)
		defer limiter.Stop()
		router := newLimitedRouter(RateLimit(limiter))

		w := doRequest(router, "GET", "/test", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("uses authenticated user in rate limit key", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		defer limiter.Stop()

		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Set(JWTUserIDKey, c.GetHeader("X-Test-User"))
			c.Next()
		})
		router.Use(RateLimit(limiter))
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		req1 := httptest.NewRequest("GET", "/test", nil)
		req1.Header.Set("X-Test-User", "user1")
		w1 := httptest.NewRecorder()
		router.ServeHTTP(w1, req1)
		assert.Equal(t, http.StatusOK, w1.Code)

		req2 := httptest.NewRequest("GET", "/test", nil)
		req2.Header.Set("X-Test-User", "user1")
		w2 := httptest.NewRecorder()
		router.ServeHTTP(w2, req2)
		assert.Equal(t, http.StatusTooManyRequests, w2.Code)

		// a different user keeps its own budget
		req3 := httptest.NewRequest("GET", "/test", nil)
		req3.Header.Set("X-Test-User", "user2")
		w3 := httptest.NewRecorder()
		router.ServeHTTP(w3, req3)
		assert.Equal(t, http.StatusOK, w3.Code)
	})
}

func TestRateLimitByKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("uses custom key function", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		defer limiter.Stop()
		keyFunc := func(c *gin.Context) string {
			return c.GetHeader("X-User-ID")
		}
		router := newLimitedRouter(RateLimitByKey(limiter, keyFunc))

		req1 := httptest.NewRequest("GET", "/test", nil)
		req1.Header.Set("X-User-ID", "user1")
		w1 := httptest.NewRecorder()
		router.ServeHTTP(w1, req1)
		assert.Equal(t, http.StatusOK, w1.Code)

		req2 := httptest.NewRequest("GET", "/test", nil)
		req2.Header.Set("X-User-ID", "user1")
		w2 := httptest.NewRecorder()
		router.ServeHTTP(w2, req2)
		assert.Equal(t, http.StatusTooManyRequests, w2.Code)
	})
}

func TestAuthRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	const clientAddr = "192.168.1.100:12345"

	t.Run("allows attempts within limit", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)
		defer limiter.Stop()
		router := newLimitedRouter(AuthRateLimit(limiter))

		for i := 0; i < 5; i++ {
			w := doRequest(router, "POST", "/login", clientAddr)
			assert.Equal(t, http.StatusOK, w.Code, "attempt %d should be allowed", i+1)
		}
	})

	t.Run("returns 429 with auth-specific error when exceeded", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute)
		defer limiter.Stop()
		router := newLimitedRouter(AuthRateLimit(limiter))

		for i := 0; i < 3; i++ {
			w := doRequest(router, "POST", "/login", clientAddr)
			assert.Equal(t, http.StatusOK, w.Code)
		}

		w := doRequest(router, "POST", "/login", clientAddr)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TOO_MANY_REQUESTS")
		assert.Contains(t, w.Body.String(), "Too many authentication attempts")
	})

	t.Run("includes rate limit headers", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)
		defer limiter.Stop()
		router := newLimitedRouter(AuthRateLimit(limiter))

		w := doRequest(router, "POST", "/login", clientAddr)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("includes Retry-After header when blocked", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		defer limiter.Stop()
		router := newLimitedRouter(AuthRateLimit(limiter))

		w1 := doRequest(router, "POST", "/login", clientAddr)
		assert.Equal(t, http.StatusOK, w1.Code)

		w2 := doRequest(router, "POST", "/login", clientAddr)

		assert.Equal(t, http.StatusTooManyRequests, w2.Code)
		assert.Equal(t, "60", w2.Header().Get("Retry-After"))
	})

	t.Run("separate limits per IP address", func(t *testing.T) {
		limiter := NewRateLimiter(2, time.Minute)
		defer limiter.Stop()
		router := newLimitedRouter(AuthRateLimit(limiter))

		for i := 0; i < 2; i++ {
			w := doRequest(router, "POST", "/login", "192.168.1.1:12345")
			assert.Equal(t, http.StatusOK, w.Code)
		}

		w1 := doRequest(router, "POST", "/login", "192.168.1.1:12345")
		assert.Equal(t, http.StatusTooManyRequests, w1.Code)

		w2 := doRequest(router, "POST", "/login", "192.168.1.2:12345")
		assert.Equal(t, http.StatusOK, w2.Code)
	})

	t.Run("auth prefix isolates budget within a shared limiter", func(t *testing.T) {
		limiter := NewRateLimiter(2, time.Minute)
		defer limiter.Stop()

		router := gin.New()
		authGroup := router.Group("/auth")
		authGroup.Use(AuthRateLimit(limiter))
		authGroup.POST("/login", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true})
		})
		apiGroup := router.Group("/api")
		apiGroup.Use(RateLimit(limiter))
		apiGroup.GET("/data", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"data": "test"})
		})

		for i := 0; i < 2; i++ {
			w := doRequest(router, "POST", "/auth/login", clientAddr)
			assert.Equal(t, http.StatusOK, w.Code)
		}

		w1 := doRequest(router, "POST", "/auth/login", clientAddr)
		assert.Equal(t, http.StatusTooManyRequests, w1.Code)

		// general traffic from the same IP uses a different key
		w2 := doRequest(router, "GET", "/api/data", clientAddr)
		assert.Equal(t, http.StatusOK, w2.Code)
	})
}
