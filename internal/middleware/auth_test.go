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

func signToken(t *testing.T, isAdmin, approved bool) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":      "b7a7cbb3-6ad5-44a1-a77f-783e43ed4533",
		"admin":    isAdmin,
		"approved": approved,
		"agency":   "d2c59e37-5ac4-49a9-b8c1-000000000001",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(GetJWTSecret())
	require.NoError(t, err)
	return token
}

func doRequest(handler gin.HandlerFunc, token string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", handler, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userID":   c.GetString("userID"),
			"agencyID": c.GetString("agencyID"),
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAdmin(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		w := doRequest(RequireAdmin(), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("non-admin token", func(t *testing.T) {
		w := doRequest(RequireAdmin(), signToken(t, false, true))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin token", func(t *testing.T) {
		w := doRequest(RequireAdmin(), signToken(t, true, true))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "b7a7cbb3-6ad5-44a1-a77f-783e43ed4533")
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doRequest(RequireAdmin(), "not.a.jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireApprovedUser(t *testing.T) {
	t.Run("approved regular user passes", func(t *testing.T) {
		w := doRequest(RequireApprovedUser(), signToken(t, false, true))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unapproved user is blocked", func(t *testing.T) {
		w := doRequest(RequireApprovedUser(), signToken(t, false, false))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admins do not submit evidence", func(t *testing.T) {
		w := doRequest(RequireApprovedUser(), signToken(t, true, true))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRequireAuthenticated(t *testing.T) {
	t.Run("any valid token passes", func(t *testing.T) {
		w := doRequest(RequireAuthenticated(), signToken(t, false, false))
		assert.Equal(t, http.StatusOK, w.Code)

		w = doRequest(RequireAuthenticated(), signToken(t, true, true))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("claims land in the context", func(t *testing.T) {
		w := doRequest(RequireAuthenticated(), signToken(t, false, true))
		assert.Contains(t, w.Body.String(), "d2c59e37-5ac4-49a9-b8c1-000000000001")
	})
}
