package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/backoffice/backend/internal/infrastructure/auth"
	"github.com/backoffice/backend/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService() *auth.JWTService {
	cfg := config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
		MaxRefreshCount:        10,
	}
	return auth.NewJWTService(cfg)
}

func newTestTokenPair(jwtService *auth.JWTService) (*auth.TokenPair, auth.GenerateTokenInput) {
	input := auth.GenerateTokenInput{
		UserID:   uuid.New(),
		Username: "testuser",
		Role:     "admin",
	}
	pair, _ := jwtService.GenerateTokenPair(input)
	return pair, input
}

// newJWTRouter installs the given auth middleware in front of a handler that
// reports the identity the middleware resolved.
func newJWTRouter(mw gin.HandlerFunc, paths ...string) *gin.Engine {
	router := gin.New()
	router.Use(mw)

	if len(paths) == 0 {
		paths = []string{"/test"}
	}
	for _, path := range paths {
		router.GET(path, func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"user_id":  GetJWTUserID(c),
				"username": GetJWTUsername(c),
				"role":     GetJWTRole(c),
			})
		})
	}
	return router
}

func serveJWT(router *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := newTestJWTService()
	pair, input := newTestTokenPair(jwtService)

	var claims *auth.Claims
	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService))
	router.GET("/test", func(c *gin.Context) {
		claims = GetJWTClaims(c)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	rec := serveJWT(router, "/test", "Bearer "+pair.AccessToken)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, claims)
	assert.Equal(t, input.UserID.String(), claims.UserID)
	assert.Equal(t, input.Username, claims.Username)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	jwtService := newTestJWTService()
	pair, _ := newTestTokenPair(jwtService)

	expiredService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:  -1 * time.Hour,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
	})
	expiredPair, _ := newTestTokenPair(expiredService)

	tests := []struct {
		name          string
		service       *auth.JWTService
		authorization string
	}{
		{"missing header", jwtService, ""},
		{"wrong scheme", jwtService, "InvalidFormat token123"},
		{"empty token", jwtService, "Bearer "},
		{"malformed token", jwtService, "Bearer invalid-token"},
		{"expired token", expiredService, "Bearer " + expiredPair.AccessToken},
		{"refresh token used as access", jwtService, "Bearer " + pair.RefreshToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newJWTRouter(JWTAuthMiddleware(tt.service))
			rec := serveJWT(router, "/test", tt.authorization)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	jwtService := newTestJWTService()

	t.Run("configured exact path", func(t *testing.T) {
		cfg := DefaultJWTConfig(jwtService)
		cfg.SkipPaths = append(cfg.SkipPaths, "/public")

		router := newJWTRouter(JWTAuthMiddlewareWithConfig(cfg), "/public")
		rec := serveJWT(router, "/public", "")

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("configured prefix", func(t *testing.T) {
		cfg := DefaultJWTConfig(jwtService)
		cfg.SkipPathPrefixes = append(cfg.SkipPathPrefixes, "/static")

		router := newJWTRouter(JWTAuthMiddlewareWithConfig(cfg), "/static/assets/image.png")
		rec := serveJWT(router, "/static/assets/image.png", "")

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("defaults", func(t *testing.T) {
		defaultSkipPaths := []string{
			"/health",
			"/healthz",
			"/ready",
			"/api/v1/health",
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
		}
		router := newJWTRouter(JWTAuthMiddleware(jwtService), defaultSkipPaths...)

		for _, path := range defaultSkipPaths {
			rec := serveJWT(router, path, "")
			assert.Equal(t, http.StatusOK, rec.Code, "path %s should not require auth", path)
		}
	})
}

func TestJWTAuthMiddleware_ContextValues(t *testing.T) {
	jwtService := newTestJWTService()
	pair, input := newTestTokenPair(jwtService)

	router := newJWTRouter(JWTAuthMiddleware(jwtService))
	rec := serveJWT(router, "/test", "Bearer "+pair.AccessToken)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, input.UserID.String())
	assert.Contains(t, body, input.Username)
	assert.Contains(t, body, input.Role)
}

func TestJWTAccessors_WithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTUserID(c))
	assert.Empty(t, GetJWTUsername(c))
	assert.Empty(t, GetJWTRole(c))
	assert.Panics(t, func() { MustGetJWTClaims(c) })
}

func TestOptionalJWTAuthMiddleware(t *testing.T) {
	jwtService := newTestJWTService()
	pair, input := newTestTokenPair(jwtService)

	var claims *auth.Claims
	router := gin.New()
	router.Use(OptionalJWTAuthMiddleware(jwtService))
	router.GET("/test", func(c *gin.Context) {
		claims = GetJWTClaims(c)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	t.Run("no token passes anonymously", func(t *testing.T) {
		claims = nil
		rec := serveJWT(router, "/test", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, claims)
	})

	t.Run("valid token attaches claims", func(t *testing.T) {
		claims = nil
		rec := serveJWT(router, "/test", "Bearer "+pair.AccessToken)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, claims)
		assert.Equal(t, input.UserID.String(), claims.UserID)
	})

	t.Run("invalid token passes anonymously", func(t *testing.T) {
		claims = nil
		rec := serveJWT(router, "/test", "Bearer invalid-token")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, claims)
	})
}

func TestJWTAuthMiddleware_CustomOnError(t *testing.T) {
	jwtService := newTestJWTService()

	customErrorCalled := false
	cfg := DefaultJWTConfig(jwtService)
	cfg.OnError = func(c *gin.Context, err error) {
		customErrorCalled = true
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"custom": "error"})
	}

	router := newJWTRouter(JWTAuthMiddlewareWithConfig(cfg))
	rec := serveJWT(router, "/test", "")

	assert.True(t, customErrorCalled)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
