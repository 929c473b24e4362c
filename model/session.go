package model

import (
	"time"

	"gorm.io/gorm"
)

// Session represents an issued login session. The token is also mirrored to
// Redis for fast validation; the DB row is the source of truth.
type Session struct {
	gorm.Model
	UserID       uint      `json:"user_id" gorm:"column:user_id;index;not null"`
	SessionToken string    `json:"session_token" gorm:"column:session_token;uniqueIndex;size:512"`
	ClientIP     string    `json:"client_ip" gorm:"column:client_ip;size:45"`
	Browser      string    `json:"browser" gorm:"column:browser;size:512"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"column:expires_at;index"`
}
