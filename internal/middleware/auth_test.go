package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthMiddleware(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(CtxUserID),
			"email":   c.GetString(CtxUserEmail),
		})
	})
	return r
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	r := authTestRouter()

	token := signToken(t, jwt.MapClaims{
		"sub":   "0b9f3c1e-5b2a-4f62-9f0e-1f4f9d8c2a11",
		"email": "student@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "0b9f3c1e-5b2a-4f62-9f0e-1f4f9d8c2a11")
	assert.Contains(t, w.Body.String(), "student@example.com")
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	r := authTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	r := authTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsWrongSecret(t *testing.T) {
	r := authTestRouter()

	token := signToken(t, jwt.MapClaims{
		"sub": "0b9f3c1e-5b2a-4f62-9f0e-1f4f9d8c2a11",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, "some-other-secret")

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	r := authTestRouter()

	token := signToken(t, jwt.MapClaims{
		"sub": "0b9f3c1e-5b2a-4f62-9f0e-1f4f9d8c2a11",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}, testSecret)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsMissingSubject(t *testing.T) {
	r := authTestRouter()

	token := signToken(t, jwt.MapClaims{
		"email": "student@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
