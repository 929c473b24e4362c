package util

import (
	"container/list"
	"os"
	"strconv"
	"sync"

	"gorm.io/gorm"
)

// Small LRU for userID -> email used to enrich security/endpoint logs
// without a DB round trip per request.

type cachedIdentity struct {
	userID uint
	email  string
}

type identityLRU struct {
	mu       sync.Mutex
	order    *list.List
	byID     map[uint]*list.Element
	capacity int
}

var userCache *identityLRU

// InitUserEmailCache initializes the LRU cache with given capacity.
// If capacity <= 0, a default of 1000 is used.
func InitUserEmailCache(capacity int) {
	if capacity <= 0 {
		capacity = 1000
	}
	userCache = &identityLRU{
		order:    list.New(),
		byID:     make(map[uint]*list.Element),
		capacity: capacity,
	}
}

// UserEmailCacheGet returns email and true if present in cache.
func UserEmailCacheGet(userID uint) (string, bool) {
	if userCache == nil {
		return "", false
	}
	userCache.mu.Lock()
	defer userCache.mu.Unlock()
	ele, ok := userCache.byID[userID]
	if !ok {
		return "", false
	}
	userCache.order.MoveToFront(ele)
	return ele.Value.(cachedIdentity).email, true
}

// UserEmailCacheSet sets the email for a userID, evicting the least recently
// used entry once capacity is exceeded.
func UserEmailCacheSet(userID uint, email string) {
	if userCache == nil {
		return
	}
	userCache.mu.Lock()
	defer userCache.mu.Unlock()
	if ele, ok := userCache.byID[userID]; ok {
		userCache.order.MoveToFront(ele)
		ele.Value = cachedIdentity{userID: userID, email: email}
		return
	}
	userCache.byID[userID] = userCache.order.PushFront(cachedIdentity{userID: userID, email: email})
	if userCache.order.Len() > userCache.capacity {
		tail := userCache.order.Back()
		if tail != nil {
			delete(userCache.byID, tail.Value.(cachedIdentity).userID)
			userCache.order.Remove(tail)
		}
	}
}

// GetUserEmail returns the email for userID using cache, falling back to DB.
// If found in DB, caches the result.
func GetUserEmail(db *gorm.DB, userID uint) string {
	if userID == 0 {
		return ""
	}
	if email, ok := UserEmailCacheGet(userID); ok {
		return email
	}
	if db == nil {
		return ""
	}
	var u struct{ Email string }
	if err := db.Table("users").Select("email").Where("id = ?", userID).Take(&u).Error; err == nil {
		if u.Email != "" {
			UserEmailCacheSet(userID, u.Email)
		}
		return u.Email
	}
	return ""
}

// InitUserEmailCacheFromEnv initializes the cache using the env var USER_EMAIL_CACHE_SIZE
func InitUserEmailCacheFromEnv() {
	if n, err := strconv.Atoi(os.Getenv("USER_EMAIL_CACHE_SIZE")); err == nil {
		InitUserEmailCache(n)
		return
	}
	InitUserEmailCache(0)
}
