package model

import "gorm.io/gorm"

// Review represents customer feedback for a therapist. Reviews are read-only
// from the therapist's perspective; customers may edit their own once, with
// the previous values retained.
type Review struct {
	gorm.Model
	TherapistID     uint   `json:"therapist_id" gorm:"column:therapist_id;index;not null" example:"1"`
	BookingID       *uint  `json:"booking_id" gorm:"column:booking_id;index"`
	UserID          *uint  `json:"user_id" gorm:"column:user_id;index"`
	Rating          int    `json:"rating" gorm:"column:rating;not null" example:"5"`
	Comment         string `json:"comment" gorm:"column:comment;type:text" example:"Wonderful session, very professional"`
	Edited          bool   `json:"edited" gorm:"column:edited;default:false"`
	PreviousRating  int    `json:"previous_rating,omitempty" gorm:"column:previous_rating"`
	PreviousComment string `json:"previous_comment,omitempty" gorm:"column:previous_comment;type:text"`
	EditCount       int    `json:"edit_count" gorm:"column:edit_count;default:0"`
}
