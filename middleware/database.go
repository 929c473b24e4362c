package middleware

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DBKey is the gin context key under which DatabaseMiddleware stores the
// request-scoped *gorm.DB.
const DBKey = "db"

// DatabaseMiddleware injects the shared DB handle into the request context so
// handlers never have to reconnect per request.
func DatabaseMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(DBKey, db)
		c.Next()
	}
}

// GetDB returns the *gorm.DB stored by DatabaseMiddleware, or nil when absent.
func GetDB(c *gin.Context) *gorm.DB {
	v, ok := c.Get(DBKey)
	if !ok {
		return nil
	}
	db, ok := v.(*gorm.DB)
	if !ok {
		return nil
	}
	return db
}
