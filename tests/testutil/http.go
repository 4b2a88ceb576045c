package testutil

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/backoffice/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// MultipartFileRequest builds a multipart/form-data request carrying a single
// uploaded file, as consumed by the CSV import endpoints.
func MultipartFileRequest(t *testing.T, path, fieldName, fileName string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(fieldName, fileName)
	require.NoError(t, err, "Failed to create form file")
	_, err = fw.Write(content)
	require.NoError(t, err, "Failed to write file content")
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// TestAuthMiddleware populates the context with a fixed authenticated user,
// standing in for the JWT middleware in API tests.
func TestAuthMiddleware() gin.HandlerFunc {
	userID := TestUserID().String()
	return func(c *gin.Context) {
		c.Set(middleware.JWTUserIDKey, userID)
		c.Set(middleware.JWTUsernameKey, "test-user")
		c.Set(middleware.JWTRoleKey, "admin")
		c.Next()
	}
}
