package middleware

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/serenityspa/serenity-api/config"
	"github.com/serenityspa/serenity-api/model"
	"github.com/serenityspa/serenity-api/util"
)

// Context keys populated by ValidateLoginToken.
const (
	UserIDKey = "user_id"
	RoleIDKey = "role_id"
)

// GetUserID returns the authenticated user id from the context, if set.
func GetUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// GetRoleID returns the authenticated user's role id from the context, if set.
func GetRoleID(c *gin.Context) (uint32, bool) {
	v, ok := c.Get(RoleIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint32)
	return id, ok
}

// tokenValidator checks the static API token on non-preflight requests.
// Returns true when the request may proceed; on mismatch it aborts with 401.
func tokenValidator(c *gin.Context, expected string) bool {
	if c.Request.Method == http.MethodOptions {
		return true
	}
	if c.GetHeader("Authorization") == expected {
		return true
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API token"})
	return false
}

// ValidateAPIToken guards public endpoints with the static API token from the
// APITOKEN environment variable. A missing APITOKEN disables the check.
func ValidateAPIToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := os.Getenv("APITOKEN")
		if token == "" {
			c.Next()
			return
		}
		if tokenValidator(c, "Bearer "+token) {
			c.Next()
		}
	}
}

// lookupSessionFromRedis resolves "session:<token>" to (userID, roleID).
// The stored value is "<uid>:<rid>"; any malformed value falls back to the DB.
func lookupSessionFromRedis(token string) (uint, uint32, bool) {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return 0, 0, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	val, err := rdb.Get(ctx, fmt.Sprintf("session:%s", token)).Result()
	if err != nil {
		return 0, 0, false
	}
	parts := strings.SplitN(val, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	uid, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || uid == 0 {
		return 0, 0, false
	}
	rid, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, false
	}
	return uint(uid), uint32(rid), true
}

// lookupSessionFromDB resolves an unexpired session row and its user's role.
func lookupSessionFromDB(db *gorm.DB, token string) (uint, uint32, error) {
	var session model.Session
	err := db.Where("session_token = ? AND expires_at > ?", token, time.Now()).First(&session).Error
	if err != nil {
		return 0, 0, err
	}
	var user model.User
	if err := db.First(&user, session.UserID).Error; err != nil {
		return 0, 0, err
	}
	return session.UserID, user.RoleID, nil
}

// ValidateLoginToken authenticates requests by session token. Redis is the
// fast path; the DB session row is authoritative when Redis misses or holds
// a malformed value.
func ValidateLoginToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionToken := c.GetHeader("session-token")
		if sessionToken == "" {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Missing session token",
				Err: fmt.Errorf("session token required"),
			})
			c.Abort()
			return
		}

		db := GetDB(c)
		if db == nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Database connection not available",
				Err: fmt.Errorf("db is nil"),
			})
			c.Abort()
			return
		}

		if uid, rid, ok := lookupSessionFromRedis(sessionToken); ok {
			c.Set(UserIDKey, uid)
			c.Set(RoleIDKey, rid)
			c.Next()
			return
		}

		uid, rid, err := lookupSessionFromDB(db, sessionToken)
		if err != nil {
			util.LogUnauthorizedAccess("", "", c.ClientIP(), c.Request.URL.Path, "invalid or expired session")
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Invalid or expired session token",
				Err: fmt.Errorf("session not found"),
			})
			c.Abort()
			return
		}

		c.Set(UserIDKey, uid)
		c.Set(RoleIDKey, rid)
		c.Next()
	}
}

// RequireRole allows the request through only when the authenticated user's
// role matches one of the given role names. Must run after ValidateLoginToken.
func RequireRole(roleNames ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleID, ok := GetRoleID(c)
		if !ok {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Authentication required",
				Err: fmt.Errorf("role not resolved"),
			})
			c.Abort()
			return
		}

		db := GetDB(c)
		if db == nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Database connection not available",
				Err: fmt.Errorf("db is nil"),
			})
			c.Abort()
			return
		}

		var role model.Role
		if err := db.First(&role, "id = ?", roleID).Error; err != nil {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Role not found",
				Err: fmt.Errorf("unknown role"),
			})
			c.Abort()
			return
		}

		if !util.Contains(role.Name, roleNames) {
			userID, _ := GetUserID(c)
			util.LogUnauthorizedAccess(fmt.Sprintf("%d", userID), "", c.ClientIP(), c.Request.URL.Path, "insufficient role")
			util.CallUserForbidden(c, util.APIErrorParams{
				Msg: "Insufficient permissions",
				Err: fmt.Errorf("role %s not allowed", role.Name),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
