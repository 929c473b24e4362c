package model

import "gorm.io/gorm"

// Service represents an item on the spa menu.
type Service struct {
	gorm.Model
	Name            string  `json:"name" gorm:"column:name;uniqueIndex;size:191" example:"Hot Stone Massage"`
	Description     string  `json:"description" gorm:"column:description;type:text" example:"Full body massage with heated basalt stones"`
	DurationMinutes int     `json:"duration_minutes" gorm:"column:duration_minutes;not null" example:"90"`
	Price           float64 `json:"price" gorm:"column:price;not null" example:"120"`
	ImageURL        string  `json:"image_url" gorm:"column:image_url"`
	IsActive        bool    `json:"is_active" gorm:"column:is_active;default:true" example:"true"`
}

// SeedServices inserts the default spa menu when the table is empty.
func SeedServices(db *gorm.DB) error {
	var count int64
	if err := db.Model(&Service{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	services := []Service{
		{Name: "Swedish Massage", Description: "Classic relaxation massage with long, flowing strokes", DurationMinutes: 60, Price: 85, IsActive: true},
		{Name: "Deep Tissue Massage", Description: "Targeted pressure for chronic muscle tension", DurationMinutes: 60, Price: 95, IsActive: true},
		{Name: "Hot Stone Massage", Description: "Full body massage with heated basalt stones", DurationMinutes: 90, Price: 120, IsActive: true},
		{Name: "Aromatherapy Facial", Description: "Cleansing facial with essential oil infusion", DurationMinutes: 45, Price: 70, IsActive: true},
		{Name: "Body Scrub & Wrap", Description: "Exfoliating scrub followed by a hydrating wrap", DurationMinutes: 75, Price: 110, IsActive: true},
	}
	return db.Create(&services).Error
}
