package auth

import "github.com/gin-gonic/gin"

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
)

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetUserRole returns the role carried by the access token or empty string.
// Handlers that gate on admin rights re-check it against the database.
func GetUserRole(c *gin.Context) string {
	return c.GetString(ctxUserRole)
}

// SetIdentity stores the authenticated identity on the request context.
func SetIdentity(c *gin.Context, userID, role string) {
	c.Set(ctxUserID, userID)
	c.Set(ctxUserRole, role)
}
