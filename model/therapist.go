package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Therapist represents a staff member bookable for spa services.
// BlockoutDates holds the persisted unavailability list as a JSON array of
// ISO-8601 dates; legacy rows may instead hold a JSON string containing such
// an array (see dashboard.ParseBlockoutDates).
type Therapist struct {
	gorm.Model
	FullName      string         `json:"full_name" gorm:"column:full_name" example:"Maria Santos"`
	Bio           string         `json:"bio" gorm:"column:bio;type:text" example:"Licensed massage therapist with 10 years of experience"`
	Specialty     string         `json:"specialty" gorm:"column:specialty" example:"Deep Tissue Massage"`
	ImageURL      string         `json:"image_url" gorm:"column:image_url" example:"https://cdn.example.com/maria.jpg"`
	IsActive      bool           `json:"is_active" gorm:"column:is_active;default:true" example:"true"`
	UserID        *uint          `json:"user_id" gorm:"column:user_id;uniqueIndex" example:"42"`
	BlockoutDates datatypes.JSON `json:"blockout_dates" gorm:"column:blockout_dates;type:json"`
}
