package endpoint

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/serenityspa/serenity-api/config"
	"github.com/serenityspa/serenity-api/dashboard"
	"github.com/serenityspa/serenity-api/middleware"
	"github.com/serenityspa/serenity-api/model"
	"github.com/serenityspa/serenity-api/notify"
	"github.com/serenityspa/serenity-api/util"
)

// emailSender delivers booking and account mail. Defaults to the logging stub;
// main swaps in the real sender when SendGrid is configured.
var emailSender notify.EmailSender = notify.NewStubEmailSender()

// SetEmailSender replaces the outbound mail implementation.
func SetEmailSender(s notify.EmailSender) {
	if s != nil {
		emailSender = s
	}
}

type createBookingRequest struct {
	ServiceID   uint   `json:"service_id" binding:"required"`
	TherapistID *uint  `json:"therapist_id"`
	BookingDate string `json:"booking_date" binding:"required"`
	BookingTime string `json:"booking_time" binding:"required"`
	GuestName   string `json:"guest_name"`
	GuestEmail  string `json:"guest_email"`
	GuestPhone  string `json:"guest_phone"`
	Notes       string `json:"notes"`
}

type updateBookingStatusRequest struct {
	Status           string   `json:"status" binding:"required"`
	CommissionAmount *float64 `json:"commission_amount"`
	TipAmount        *float64 `json:"tip_amount"`
	TipRecipient     string   `json:"tip_recipient"`
}

// CreateBooking books an appointment. Logged-in customers are attached by
// user id; guests must provide a name and contact. The chosen therapist must
// be active and not blocked out on the requested date.
func CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	if _, err := time.Parse(dashboard.DateLayout, req.BookingDate); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid booking date", Err: err})
		return
	}
	today := time.Now().Format(dashboard.DateLayout)
	if req.BookingDate < today {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Booking date is in the past",
			Err: fmt.Errorf("date %s before %s", req.BookingDate, today),
		})
		return
	}

	var service model.Service
	if err := db.Where("id = ? AND is_active = ?", req.ServiceID, true).First(&service).Error; err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Service not available", Err: err})
		return
	}

	if req.TherapistID != nil {
		if !ensureTherapistBookable(c, db, *req.TherapistID, req.BookingDate) {
			return
		}
	}

	booking := model.Booking{
		ServiceID:   req.ServiceID,
		TherapistID: req.TherapistID,
		BookingDate: req.BookingDate,
		BookingTime: req.BookingTime,
		Status:      model.BookingPending,
		Notes:       req.Notes,
	}

	var customerName, customerEmail string
	if userID, authed := middleware.GetUserID(c); authed {
		booking.UserID = &userID
		var user model.User
		if err := db.First(&user, userID).Error; err == nil {
			customerName, customerEmail = user.Name, user.Email
		}
	} else {
		if req.GuestName == "" || (req.GuestEmail == "" && req.GuestPhone == "") {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Guest bookings require a name and an email or phone number",
				Err: fmt.Errorf("missing guest contact"),
			})
			return
		}
		booking.GuestName = req.GuestName
		booking.GuestEmail = req.GuestEmail
		booking.GuestPhone = req.GuestPhone
		customerName, customerEmail = req.GuestName, req.GuestEmail
	}

	if err := db.Create(&booking).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create booking", Err: err})
		return
	}

	if customerEmail != "" {
		msg := notify.BookingConfirmationEmail(customerEmail, customerName,
			service.Name, booking.BookingDate, booking.BookingTime, booking.ReferenceCode)
		if err := emailSender.Send(c.Request.Context(), msg); err != nil {
			log.Printf("booking confirmation email for %s: %v", booking.ReferenceCode, err)
		}
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Booking created", Data: booking})
}

// ensureTherapistBookable verifies the therapist exists, is active, and has
// not blocked out the requested date.
func ensureTherapistBookable(c *gin.Context, db *gorm.DB, therapistID uint, date string) bool {
	var therapist model.Therapist
	if err := db.Where("id = ? AND is_active = ?", therapistID, true).First(&therapist).Error; err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Therapist not available", Err: err})
		return false
	}

	blockouts, err := dashboard.ParseBlockoutDates(therapist.BlockoutDates)
	if err != nil {
		util.LogSecurityEvent(util.SecurityEvent{
			EventType: util.EventSuspiciousActivity,
			IP:        c.ClientIP(),
			Message:   fmt.Sprintf("Unparseable blockout dates for therapist %d: %v", therapistID, err),
		})
	}
	if util.Contains(date, blockouts) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Therapist is not available on that date",
			Err: fmt.Errorf("date %s blocked", date),
		})
		return false
	}
	return true
}

// GetBookingByReference returns a booking looked up by its reference code,
// so guests can check their appointment without an account.
func GetBookingByReference(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Missing reference code",
			Err: fmt.Errorf("reference code is required"),
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var booking model.Booking
	if err := db.Where("reference_code = ?", code).First(&booking).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Booking not found", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Booking retrieved", Data: booking})
}

// ListMyBookings returns the authenticated customer's bookings, newest first.
func ListMyBookings(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	userID, authed := middleware.GetUserID(c)
	if !authed {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "User not authenticated",
			Err: fmt.Errorf("user id not found in context"),
		})
		return
	}

	var bookings []model.Booking
	err := db.Where("user_id = ?", userID).
		Order("booking_date desc, booking_time desc").
		Find(&bookings).Error
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve bookings", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Bookings retrieved", Data: bookings})
}

// ListBookings returns a cursor-paginated booking listing for admins, with
// optional status, keyword and date-window filters.
func ListBookings(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	limit, cursor, offset := parsePaginationParams(c)

	query := db.Model(&model.Booking{})
	if status := c.Query("status"); status != "" {
		if !model.IsValidBookingStatus(status) {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Invalid booking status",
				Err: fmt.Errorf("unknown status %q", status),
			})
			return
		}
		query = query.Where("status = ?", status)
	}
	if keyword := c.Query("keyword"); keyword != "" {
		kw := "%" + keyword + "%"
		query = query.Where("guest_name LIKE ? OR guest_email LIKE ? OR reference_code LIKE ?", kw, kw, kw)
	}
	if from := c.Query("from"); from != "" {
		query = query.Where("booking_date >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("booking_date <= ?", to)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to count bookings", Err: err})
		return
	}

	query = applyPaginationQuery(query, cursor, offset)
	var bookings []model.Booking
	if err := query.Order("id ASC").Limit(limit + 1).Find(&bookings).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve bookings", Err: err})
		return
	}

	hasMore := len(bookings) > limit
	if hasMore {
		bookings = bookings[:limit]
	}
	var nextCursor *uint
	if hasMore {
		lastID := bookings[len(bookings)-1].ID
		nextCursor = &lastID
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Bookings retrieved",
		Data: map[string]interface{}{
			"bookings":      bookings,
			"total":         total,
			"total_fetched": len(bookings),
			"has_more":      hasMore,
			"next_cursor":   nextCursor,
		},
	})
}

// UpdateBookingStatus moves a booking through its lifecycle. Completing a
// booking may also record the commission and tip that the earnings view
// aggregates. The change is logged and broadcast so an open therapist portal
// refreshes itself.
func UpdateBookingStatus(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	var req updateBookingStatusRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}
	if !model.IsValidBookingStatus(req.Status) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid booking status",
			Err: fmt.Errorf("unknown status %q", req.Status),
		})
		return
	}
	if req.TipRecipient != "" &&
		req.TipRecipient != model.TipRecipientTherapist &&
		req.TipRecipient != model.TipRecipientHouse {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid tip recipient",
			Err: fmt.Errorf("unknown tip recipient %q", req.TipRecipient),
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var booking model.Booking
	if err := db.First(&booking, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Booking not found", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve booking", Err: err})
		return
	}

	oldStatus := booking.Status
	updates := map[string]interface{}{"status": req.Status}
	if req.CommissionAmount != nil {
		updates["commission_amount"] = *req.CommissionAmount
	}
	if req.TipAmount != nil {
		updates["tip_amount"] = *req.TipAmount
	}
	if req.TipRecipient != "" {
		updates["tip_recipient"] = req.TipRecipient
	}

	if err := db.Model(&booking).Updates(updates).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update booking", Err: err})
		return
	}

	actorID, _ := middleware.GetUserID(c)
	util.LogBookingStatusChange(fmt.Sprintf("%d", actorID), c.ClientIP(), booking.ID, oldStatus, req.Status)

	if booking.TherapistID != nil {
		err := dashboard.PublishStatusChange(context.Background(), config.GetRedisClient(), dashboard.StatusEvent{
			BookingID:   booking.ID,
			TherapistID: *booking.TherapistID,
			OldStatus:   oldStatus,
			NewStatus:   req.Status,
		})
		if err != nil {
			log.Printf("booking status publish for booking %d: %v", booking.ID, err)
		}
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Booking updated", Data: booking})
}
