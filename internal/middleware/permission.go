package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/store"
	"github.com/taskboard-dev/taskboard/internal/types"
)

// RequirePermission gates a route on a named permission, granted either
// directly or through one of the user's roles. Must run after AuthMiddleware.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		value, exists := ctx.Get(types.ContextUserKey)

		if !exists {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		user, ok := value.(AuthenticatedUser)

		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		allowed, err := store.HasPermission(db.DB, user.ID, permission)

		if err != nil {
			log.Printf("Failed to check permission %q for user %d: %v", permission, user.ID, err)
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if !allowed {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
			return
		}

		ctx.Next()
	}
}
