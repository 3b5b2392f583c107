package auth

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/punchclock/punchclock/internal/models"
)

const sessionUserKey = "user_id"

// RequireAuth ensures the request carries an authenticated session and puts
// the user id into the gin context for downstream handlers.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(sessionUserKey).(uint)
		if !ok || userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		c.Set(sessionUserKey, userID)
		c.Next()
	}
}

// RequireAdmin ensures the authenticated user has the admin role. Must run
// after RequireAuth.
func RequireAdmin(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := db.First(&user, CurrentUserID(c)).Error; err != nil || !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user's id from the gin context.
// Zero when RequireAuth did not run.
func CurrentUserID(c *gin.Context) uint {
	id, _ := c.Get(sessionUserKey)
	userID, _ := id.(uint)
	return userID
}
