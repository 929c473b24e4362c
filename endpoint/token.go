package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/serenityspa/serenity-api/middleware"
	"github.com/serenityspa/serenity-api/model"
	"github.com/serenityspa/serenity-api/util"
)

// roleRetryDelay paces the role lookup retries in resolveRoleName.
var roleRetryDelay = time.Second

// resolveRoleName maps a role id to its name, retrying briefly on transient
// DB failures. When every attempt fails the caller still gets a usable
// identity: the minimal customer role.
func resolveRoleName(db *gorm.DB, roleID uint32) string {
	var role model.Role
	err := util.RetryFixed(3, roleRetryDelay, func() error {
		return db.First(&role, "id = ?", roleID).Error
	})
	if err != nil {
		return model.RoleUser
	}
	return role.Name
}

// ValidateToken reports whether a session token is valid and unexpired,
// returning the session row joined with the resolved role name.
func ValidateToken(c *gin.Context) {
	sessionToken := c.GetHeader("session-token")
	if sessionToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session token"})
		c.Abort()
		return
	}

	db := middleware.GetDB(c)
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database connection not available"})
		c.Abort()
		return
	}

	var session model.Session
	err := db.Where("session_token = ? AND expires_at > ?", sessionToken, time.Now()).
		First(&session).Error
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session not found"})
		c.Abort()
		return
	}

	var user model.User
	if err := db.First(&user, session.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session not found"})
		c.Abort()
		return
	}

	result := struct {
		model.Session
		Role string `json:"role"`
	}{Session: session, Role: resolveRoleName(db, user.RoleID)}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Valid session token",
		Data: result,
	})
}
