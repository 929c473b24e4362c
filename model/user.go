package model

import "gorm.io/gorm"

// User represents a portal account (customer, therapist or admin).
type User struct {
	gorm.Model
	Name           string `json:"name" gorm:"column:name" example:"Jane Doe"`
	Email          string `json:"email" gorm:"column:email;uniqueIndex;size:191" example:"jane@example.com"`
	Password       string `json:"-" gorm:"column:password"`
	PasswordSalt   string `json:"-" gorm:"column:password_salt"`
	PhoneNumber    string `json:"phone_number" gorm:"column:phone_number" example:"081234567890"`
	RoleID         uint32 `json:"role_id" gorm:"column:role_id;not null" example:"3"`
	FailedAttempts int    `json:"-" gorm:"column:failed_attempts;default:0"`
	LockedUntil    *int64 `json:"-" gorm:"column:locked_until"`
}
