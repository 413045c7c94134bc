package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// AdminOnly checks the acting user's admin flag in the database on each
// request. Hiding the admin routes in a client is not authorization;
// this gate is what actually keeps non-admins out of document
// verification.
func AdminOnly(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(CtxUserID)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var isAdmin bool
		query := `SELECT is_admin FROM profiles WHERE id = $1`
		if err := db.GetContext(c.Request.Context(), &isAdmin, query, userID); err != nil {
			logrus.WithField("user_id", userID).WithError(err).Warn("admin check failed")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		if !isAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}
