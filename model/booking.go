package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Booking statuses. Transitions are performed by admin/therapist actions;
// completed bookings feed the earnings aggregates.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

// Tip recipients. Only tips assigned to the therapist count toward the
// therapist's earnings view.
const (
	TipRecipientTherapist = "therapist"
	TipRecipientHouse     = "house"
)

// Booking represents a customer appointment for a spa service.
// Either UserID or the guest contact fields identify the customer.
type Booking struct {
	gorm.Model
	ReferenceCode    string  `json:"reference_code" gorm:"column:reference_code;uniqueIndex;size:36"`
	ServiceID        uint    `json:"service_id" gorm:"column:service_id;not null" example:"1"`
	TherapistID      *uint   `json:"therapist_id" gorm:"column:therapist_id;index" example:"1"`
	UserID           *uint   `json:"user_id" gorm:"column:user_id;index" example:"42"`
	GuestName        string  `json:"guest_name" gorm:"column:guest_name" example:"Walk-in Customer"`
	GuestEmail       string  `json:"guest_email" gorm:"column:guest_email" example:"guest@example.com"`
	GuestPhone       string  `json:"guest_phone" gorm:"column:guest_phone" example:"081234567890"`
	BookingDate      string  `json:"booking_date" gorm:"column:booking_date;index;size:10" example:"2025-06-15"`
	BookingTime      string  `json:"booking_time" gorm:"column:booking_time;size:5" example:"14:30"`
	Status           string  `json:"status" gorm:"column:status;index;default:pending" example:"pending"`
	CommissionAmount float64 `json:"commission_amount" gorm:"column:commission_amount;default:0" example:"500"`
	TipAmount        float64 `json:"tip_amount" gorm:"column:tip_amount;default:0" example:"50"`
	TipRecipient     string  `json:"tip_recipient" gorm:"column:tip_recipient;size:32" example:"therapist"`
	Notes            string  `json:"notes" gorm:"column:notes;type:text"`
}

// BeforeCreate assigns a reference code when none was provided.
func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ReferenceCode == "" {
		b.ReferenceCode = uuid.New().String()
	}
	return nil
}

// IsValidBookingStatus reports whether s is one of the known booking statuses.
func IsValidBookingStatus(s string) bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}
