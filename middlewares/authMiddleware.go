package middlewares

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"issuex/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

// extractToken pulls the bearer credential from the Authorization header,
// falling back to the auth_token cookie set on login.
func extractToken(c *gin.Context) string {
	authHeader := c.Request.Header.Get("Authorization")
	if authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			return authHeader[7:]
		}
		return authHeader
	}
	if cookie, err := c.Cookie("auth_token"); err == nil {
		return cookie
	}
	return ""
}

func parseClaims(tokenString string) (jwt.MapClaims, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT secret not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "No authorization token provided"})
			c.Abort()
			return
		}

		claims, err := parseClaims(tokenString)
		if err != nil {
			log.Printf("Token validation failed: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid authorization token"})
			c.Abort()
			return
		}

		userID, exists := claims["user_id"]
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token claims"})
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		if role, ok := claims["role"].(string); ok {
			c.Set("role", role)
		}

		c.Next()
	}
}

// OptionalAuth populates user_id/role when a valid token is present but
// lets unauthenticated requests through. Used by the issue feed so that
// vote annotations appear for signed-in users only.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := extractToken(c); tokenString != "" {
			if claims, err := parseClaims(tokenString); err == nil {
				if userID, exists := claims["user_id"]; exists {
					c.Set("user_id", userID)
				}
				if role, ok := claims["role"].(string); ok {
					c.Set("role", role)
				}
			}
		}
		c.Next()
	}
}

// RequireStaff rejects requests whose token role cannot triage issues.
// Runs after AuthMiddleware.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, _ := c.Get("role")
		role, _ := roleVal.(string)
		if !models.UserRole(role).Staff() {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Insufficient role"})
			c.Abort()
			return
		}
		c.Next()
	}
}
