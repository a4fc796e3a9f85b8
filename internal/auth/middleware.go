package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxAdminID = "admin_id"
	ctxEmail   = "admin_email"
	ctxGymID   = "gym_id"
	ctxRole    = "user_role"
)

func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is empty"})
			c.Abort()
			return
		}

		claims, err := ValidateToken(tokenString, accessTokenSecret)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			default:
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or malformed token"})
			}
			c.Abort()
			return
		}

		if claims.TokenType != tokenTypeAccess {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			c.Abort()
			return
		}

		c.Set(ctxAdminID, claims.AdminID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxGymID, claims.GymID)
		c.Set(ctxRole, claims.Role)

		c.Next()
	}
}

func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ctxRole)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User role not found"})
			c.Abort()
			return
		}

		roleStr, ok := role.(string)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid role type"})
			c.Abort()
			return
		}

		if roleStr != requiredRole {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireGymAccess rejects requests whose :gymID path parameter names a gym
// other than the one in the caller's token.
func RequireGymAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		gymID, ok := GetGymID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Gym not found in token"})
			c.Abort()
			return
		}

		if param := strings.ToLower(c.Param("gymID")); param != "" && param != gymID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access to this gym is not allowed"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func GetAdminID(c *gin.Context) (string, bool) {
	return getString(c, ctxAdminID)
}

func GetGymID(c *gin.Context) (string, bool) {
	return getString(c, ctxGymID)
}

func GetEmail(c *gin.Context) (string, bool) {
	return getString(c, ctxEmail)
}

func getString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
