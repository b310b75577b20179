// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mcgboard/permits-backend/internal/models"
	"github.com/mcgboard/permits-backend/internal/services"
	"github.com/mcgboard/permits-backend/internal/utils"
)

func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.UnauthorizedResponse(c, "Invalid authorization header")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			utils.UnauthorizedResponse(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		if claims.ManagedSocietyID != "" {
			c.Set("managed_society_id", claims.ManagedSocietyID)
		}
		c.Next()
	}
}

func StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			utils.ForbiddenResponse(c, "")
			c.Abort()
			return
		}
		userRole, ok := role.(string)
		if !ok || !models.UserRole(userRole).IsStaff() {
			utils.ForbiddenResponse(c, "Staff access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// ActorFromContext rebuilds the requesting actor from the claims the auth
// middleware stored.
func ActorFromContext(c *gin.Context) (services.Actor, bool) {
	rawID, exists := c.Get("user_id")
	if !exists {
		return services.Actor{}, false
	}
	idStr, ok := rawID.(string)
	if !ok {
		return services.Actor{}, false
	}
	userID, err := uuid.Parse(idStr)
	if err != nil {
		return services.Actor{}, false
	}

	actor := services.Actor{UserID: userID}
	if role, ok := c.Get("role"); ok {
		if roleStr, ok := role.(string); ok {
			actor.Role = models.UserRole(roleStr)
		}
	}
	if society, ok := c.Get("managed_society_id"); ok {
		if societyStr, ok := society.(string); ok {
			if societyID, err := uuid.Parse(societyStr); err == nil {
				actor.ManagedSocietyID = &societyID
			}
		}
	}
	return actor, true
}
