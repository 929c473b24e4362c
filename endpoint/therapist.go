package endpoint

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/serenityspa/serenity-api/model"
	"github.com/serenityspa/serenity-api/util"
)

type createTherapistRequest struct {
	FullName  string `json:"full_name" binding:"required"`
	Bio       string `json:"bio"`
	Specialty string `json:"specialty"`
	ImageURL  string `json:"image_url"`
	IsActive  *bool  `json:"is_active"`
}

type updateTherapistRequest struct {
	FullName  string `json:"full_name"`
	Bio       string `json:"bio"`
	Specialty string `json:"specialty"`
	ImageURL  string `json:"image_url"`
	IsActive  *bool  `json:"is_active"`
}

type linkAccountRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// ListTherapists returns the active therapists for the public booking flow.
// Admins see inactive profiles too via ?include_inactive=true.
func ListTherapists(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	query := db.Model(&model.Therapist{}).Order("full_name ASC")
	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var therapists []model.Therapist
	if err := query.Find(&therapists).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve therapists", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Therapists retrieved", Data: therapists})
}

// GetTherapist returns one therapist profile by id.
func GetTherapist(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	therapist, ok := fetchTherapistByID(c, db, id)
	if !ok {
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Therapist retrieved", Data: therapist})
}

// CreateTherapist adds a therapist profile. Admin only. The profile starts
// unlinked; LinkTherapistAccount attaches a login afterwards.
func CreateTherapist(c *gin.Context) {
	var req createTherapistRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	therapist := model.Therapist{
		FullName:  req.FullName,
		Bio:       req.Bio,
		Specialty: req.Specialty,
		ImageURL:  req.ImageURL,
		IsActive:  true,
	}
	if req.IsActive != nil {
		therapist.IsActive = *req.IsActive
	}

	if err := db.Create(&therapist).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create therapist", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Therapist created", Data: therapist})
}

// UpdateTherapist applies a partial update to a therapist profile. Admin only.
func UpdateTherapist(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	var req updateTherapistRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	therapist, ok := fetchTherapistByID(c, db, id)
	if !ok {
		return
	}

	updates := map[string]interface{}{}
	if req.FullName != "" {
		updates["full_name"] = req.FullName
	}
	if req.Bio != "" {
		updates["bio"] = req.Bio
	}
	if req.Specialty != "" {
		updates["specialty"] = req.Specialty
	}
	if req.ImageURL != "" {
		updates["image_url"] = req.ImageURL
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "At least one field must be provided",
			Err: fmt.Errorf("no fields to update"),
		})
		return
	}

	if err := db.Model(therapist).Updates(updates).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update therapist", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Therapist updated", Data: therapist})
}

// LinkTherapistAccount attaches a login account to a therapist profile and
// promotes the account to the therapist role. Admin only. One account may be
// linked to at most one profile.
func LinkTherapistAccount(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	var req linkAccountRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	therapist, ok := fetchTherapistByID(c, db, id)
	if !ok {
		return
	}

	var user model.User
	if err := db.First(&user, req.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "User not found", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve user", Err: err})
		return
	}

	var linked model.Therapist
	if err := db.Where("user_id = ? AND id != ?", req.UserID, therapist.ID).First(&linked).Error; err == nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Account already linked to another therapist",
			Err: fmt.Errorf("user %d linked to therapist %d", req.UserID, linked.ID),
		})
		return
	}

	var therapistRole model.Role
	if err := db.Where("name = ?", model.RoleTherapist).First(&therapistRole).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Therapist role not found", Err: err})
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(therapist).Update("user_id", req.UserID).Error; err != nil {
			return err
		}
		return tx.Model(&user).Update("role_id", therapistRole.ID).Error
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to link account", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Account linked", Data: therapist})
}

// fetchTherapistByID retrieves a therapist or responds with the right error.
func fetchTherapistByID(c *gin.Context, db *gorm.DB, id uint) (*model.Therapist, bool) {
	var therapist model.Therapist
	if err := db.First(&therapist, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Therapist not found", Err: err})
			return nil, false
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve therapist", Err: err})
		return nil, false
	}
	return &therapist, true
}
