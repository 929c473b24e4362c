package endpoint

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/serenityspa/serenity-api/middleware"
	"github.com/serenityspa/serenity-api/model"
	"github.com/serenityspa/serenity-api/util"
)

type createReviewRequest struct {
	TherapistID uint   `json:"therapist_id" binding:"required"`
	BookingID   *uint  `json:"booking_id"`
	Rating      int    `json:"rating" binding:"required,min=1,max=5"`
	Comment     string `json:"comment"`
}

type updateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// ListTherapistReviews returns a therapist's reviews, newest first. Public.
func ListTherapistReviews(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var reviews []model.Review
	if err := db.Where("therapist_id = ?", id).Order("created_at desc").Find(&reviews).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve reviews", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Reviews retrieved", Data: reviews})
}

// CreateReview records customer feedback for a therapist. One review per
// booking; a review tied to a booking requires a completed booking owned by
// the reviewer.
func CreateReview(c *gin.Context) {
	var req createReviewRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

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

	var therapist model.Therapist
	if err := db.First(&therapist, req.TherapistID).Error; err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Therapist not found", Err: err})
		return
	}

	if req.BookingID != nil {
		var booking model.Booking
		if err := db.First(&booking, *req.BookingID).Error; err != nil {
			util.CallUserError(c, util.APIErrorParams{Msg: "Booking not found", Err: err})
			return
		}
		if booking.UserID == nil || *booking.UserID != userID {
			util.CallUserForbidden(c, util.APIErrorParams{
				Msg: "Booking belongs to another customer",
				Err: fmt.Errorf("booking %d not owned by user %d", booking.ID, userID),
			})
			return
		}
		if booking.Status != model.BookingCompleted {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Only completed bookings can be reviewed",
				Err: fmt.Errorf("booking %d has status %s", booking.ID, booking.Status),
			})
			return
		}
		var existing model.Review
		if err := db.Where("booking_id = ?", *req.BookingID).First(&existing).Error; err == nil {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Booking already reviewed",
				Err: fmt.Errorf("review %d exists for booking %d", existing.ID, booking.ID),
			})
			return
		}
	}

	review := model.Review{
		TherapistID: req.TherapistID,
		BookingID:   req.BookingID,
		UserID:      &userID,
		Rating:      req.Rating,
		Comment:     req.Comment,
	}
	if err := db.Create(&review).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create review", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Review created", Data: review})
}

// UpdateReview lets a customer revise their own review. The previous rating
// and comment are retained on the row for audit.
func UpdateReview(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	var req updateReviewRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

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

	var review model.Review
	if err := db.First(&review, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Review not found", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve review", Err: err})
		return
	}

	if review.UserID == nil || *review.UserID != userID {
		util.CallUserForbidden(c, util.APIErrorParams{
			Msg: "Review belongs to another customer",
			Err: fmt.Errorf("review %d not owned by user %d", review.ID, userID),
		})
		return
	}

	updates := map[string]interface{}{
		"previous_rating":  review.Rating,
		"previous_comment": review.Comment,
		"rating":           req.Rating,
		"comment":          req.Comment,
		"edited":           true,
		"edit_count":       review.EditCount + 1,
	}
	if err := db.Model(&review).Updates(updates).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update review", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Review updated", Data: review})
}
