package middleware

import (
	"net/http"
	"os"
	"strings"

	"ppda-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, accessToken, refreshToken string) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	// access_token: 24h, refresh_token: 7 days
	c.SetCookie("access_token", accessToken, 3600*24, "/", "", secure, true)
	c.SetCookie("refresh_token", refreshToken, 3600*24*7, "/", "", secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
	c.SetCookie("refresh_token", "", -1, "/", "", secure, true)
}

// parseClaims extracts and validates the JWT from cookie or Authorization
// header, aborting on failure. On success the caller's identity is placed in
// the gin context: userID (string), isAdmin (bool), approved (bool) and
// agencyID (string, may be empty).
func parseClaims(c *gin.Context) (jwt.MapClaims, bool) {
	// Try cookie first, fallback to Authorization header
	tokenString, cookieErr := c.Cookie("access_token")
	if cookieErr != nil || tokenString == "" {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
			return nil, false
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Invalid authorization format. Expected 'Bearer <token>'"))
			return nil, false
		}
		tokenString = parts[1]
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return GetJWTSecret(), nil
	})

	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Invalid token"))
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Invalid token claims"))
		return nil, false
	}

	isAdmin, _ := claims["admin"].(bool)
	approved, _ := claims["approved"].(bool)
	agencyID, _ := claims["agency"].(string)

	c.Set("userID", claims["sub"])
	c.Set("isAdmin", isAdmin)
	c.Set("approved", approved)
	c.Set("agencyID", agencyID)

	return claims, true
}

// RequireAdmin validates the JWT and only lets administrators through.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseClaims(c)
		if !ok {
			return
		}

		if isAdmin, _ := claims["admin"].(bool); !isAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error("Access denied: administrator role required"))
			return
		}

		c.Next()
	}
}

// RequireApprovedUser validates the JWT and only lets approved, non-admin
// users through. Administrators do not submit evidence or hold a dashboard.
func RequireApprovedUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseClaims(c)
		if !ok {
			return
		}

		if isAdmin, _ := claims["admin"].(bool); isAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error("Access denied: administrators cannot perform this action"))
			return
		}
		if approved, _ := claims["approved"].(bool); !approved {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error("Access denied: account pending approval"))
			return
		}

		c.Next()
	}
}

// RequireAuthenticated validates the JWT for endpoints open to any approved
// account, admin or not.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := parseClaims(c); !ok {
			return
		}
		c.Next()
	}
}
