package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"savdesk/database"
	"savdesk/services"
	"savdesk/utils"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID       = "user_id"
	ContextRole         = "role"
	ContextEmail        = "email"
	ContextTechnicienID = "technicien_id"
)

// AuthMiddleware validates the bearer token and stores the caller identity
// on the request context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(secret, parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		role := database.Role(claims.Role)
		if !role.Valid() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, role)
		if claims.TechnicienID != nil {
			c.Set(ContextTechnicienID, *claims.TechnicienID)
		}

		c.Next()
	}
}

// RequireRoles lets the request through only for the listed roles. It must
// run after AuthMiddleware.
func RequireRoles(roles ...database.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}

		for _, r := range roles {
			if r == identity.Role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		c.Abort()
	}
}

func ResponsableOnly() gin.HandlerFunc {
	return RequireRoles(database.RoleResponsableSAV)
}

func ClientOnly() gin.HandlerFunc {
	return RequireRoles(database.RoleClient)
}

// CurrentIdentity reads the identity stored by AuthMiddleware.
func CurrentIdentity(c *gin.Context) (services.Identity, bool) {
	userID, ok := c.Get(ContextUserID)
	if !ok {
		return services.Identity{}, false
	}
	role, ok := c.Get(ContextRole)
	if !ok {
		return services.Identity{}, false
	}

	identity := services.Identity{
		UserID: userID.(uint),
		Role:   role.(database.Role),
	}
	if techID, ok := c.Get(ContextTechnicienID); ok {
		id := techID.(uint)
		identity.TechnicienID = &id
	}
	return identity, true
}
