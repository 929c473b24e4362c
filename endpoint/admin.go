package endpoint

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/serenityspa/serenity-api/middleware"
	"github.com/serenityspa/serenity-api/model"
	"github.com/serenityspa/serenity-api/notify"
	"github.com/serenityspa/serenity-api/util"
)

// generateTempPassword returns a random url-safe password for admin resets.
func generateTempPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ResetUserPassword sets a temporary password on a user account, kills the
// user's sessions, and emails the temporary password. Admin only.
func ResetUserPassword(c *gin.Context) {
	uid, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var user model.User
	if err := db.First(&user, uid).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "User not found", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve user", Err: err})
		return
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to generate password", Err: err})
		return
	}
	if err := hashUserPassword(&user, tempPassword); err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to hash password", Err: err})
		return
	}

	// Clear any lockout along with the credential change.
	user.FailedAttempts = 0
	user.LockedUntil = nil

	if err := db.Save(&user).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to reset password", Err: err})
		return
	}

	invalidateUserSessions(db, user.ID)

	adminID, _ := middleware.GetUserID(c)
	util.LogPasswordReset(fmt.Sprintf("%d", adminID), user.Email, c.ClientIP())

	msg := notify.PasswordResetEmail(user.Email, user.Name, tempPassword)
	if err := emailSender.Send(c.Request.Context(), msg); err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Password reset but email delivery failed", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Password reset; temporary password emailed"})
}

type errorReportRequest struct {
	Message string `json:"message" binding:"required"`
	Page    string `json:"page"`
	Stack   string `json:"stack"`
}

// errorReportRecipient receives client error reports by email. Empty means
// log-only; main sets it from config.
var errorReportRecipient string

// SetErrorReportRecipient sets the address notified on client error reports.
func SetErrorReportRecipient(addr string) {
	errorReportRecipient = addr
}

// ReportClientError records a front-end error report in the security log and
// notifies the operator address so failures surface without shell access to
// client devices.
func ReportClientError(c *gin.Context) {
	var req errorReportRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	userID := ""
	if uid, ok := middleware.GetUserID(c); ok {
		userID = fmt.Sprintf("%d", uid)
	}

	detail := req.Message
	if req.Page != "" {
		detail = fmt.Sprintf("%s (page: %s)", detail, req.Page)
	}
	if len(req.Stack) > 2000 {
		req.Stack = req.Stack[:2000]
	}
	if req.Stack != "" {
		detail = fmt.Sprintf("%s\n%s", detail, req.Stack)
	}

	util.LogSecurityEvent(util.SecurityEvent{
		EventType: util.EventClientErrorReport,
		UserID:    userID,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   detail,
	})

	if errorReportRecipient != "" {
		msg := notify.ErrorReportEmail(errorReportRecipient, detail)
		if err := emailSender.Send(c.Request.Context(), msg); err != nil {
			log.Printf("error report email to %s: %v", errorReportRecipient, err)
		}
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Error report recorded"})
}

// ListSecurityLogs returns recent security events, newest first, with
// optional event type filtering. Admin only.
func ListSecurityLogs(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	limit := parsePositiveInt(c.Query("limit"), 50, 200)

	query := db.Model(&model.SecurityLog{})
	if eventType := c.Query("event_type"); eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}

	var logs []model.SecurityLog
	if err := query.Order("id DESC").Limit(limit).Find(&logs).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve security logs", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Security logs retrieved", Data: logs})
}
