package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/frikords/server/internal/models"
	"github.com/frikords/server/internal/services"
)

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return c.GetHeader("X-Authorization")
}

// RequireAuth resolves the bearer token to a user and rejects the
// request otherwise. Banned accounts fail token resolution, so a ban
// takes effect on the next request. Each authenticated request also
// refreshes the caller's presence heartbeat.
func RequireAuth(auth *services.AuthService, presence *services.PresenceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		user, err := auth.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or revoked token"})
			c.Abort()
			return
		}

		_ = presence.Touch(c.Request.Context(), user.ID)
		c.Set("user", user)
		c.Set("token", token)
		c.Next()
	}
}

// OptionalAuth resolves a token when one is presented but lets
// anonymous requests through. Used on public reads that show more to
// authenticated callers.
func OptionalAuth(auth *services.AuthService, presence *services.PresenceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token != "" {
			if user, err := auth.ValidateToken(token); err == nil {
				_ = presence.Touch(c.Request.Context(), user.ID)
				c.Set("user", user)
				c.Set("token", token)
			}
		}
		c.Next()
	}
}

// RequireAdmin gates a route group behind the admin flag. Must run
// after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get("user")
		user, ok := v.(*models.User)
		if !ok || !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
