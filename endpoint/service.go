package endpoint

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/serenityspa/serenity-api/model"
	"github.com/serenityspa/serenity-api/util"
)

type createServiceRequest struct {
	Name            string  `json:"name" binding:"required"`
	Description     string  `json:"description"`
	DurationMinutes int     `json:"duration_minutes" binding:"required,gt=0"`
	Price           float64 `json:"price" binding:"required,gt=0"`
	ImageURL        string  `json:"image_url"`
}

type updateServiceRequest struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	DurationMinutes *int     `json:"duration_minutes"`
	Price           *float64 `json:"price"`
	ImageURL        string   `json:"image_url"`
	IsActive        *bool    `json:"is_active"`
}

// ListServices returns the active spa menu for the public booking flow.
func ListServices(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	query := db.Model(&model.Service{}).Order("name ASC")
	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var services []model.Service
	if err := query.Find(&services).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve services", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Services retrieved", Data: services})
}

// CreateService adds an item to the spa menu. Admin only.
func CreateService(c *gin.Context) {
	var req createServiceRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	service := model.Service{
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		ImageURL:        req.ImageURL,
		IsActive:        true,
	}
	if err := db.Create(&service).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create service", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Service created", Data: service})
}

// UpdateService applies a partial update to a menu item. Admin only.
// Deactivation is how items leave the public menu; nothing is deleted.
func UpdateService(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	var req updateServiceRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var service model.Service
	if err := db.First(&service, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Service not found", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve service", Err: err})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.DurationMinutes != nil && *req.DurationMinutes > 0 {
		updates["duration_minutes"] = *req.DurationMinutes
	}
	if req.Price != nil && *req.Price > 0 {
		updates["price"] = *req.Price
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

	if err := db.Model(&service).Updates(updates).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update service", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Service updated", Data: service})
}
