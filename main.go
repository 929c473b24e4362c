// main.go
package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/serenityspa/serenity-api/config"
	"github.com/serenityspa/serenity-api/endpoint"
	"github.com/serenityspa/serenity-api/middleware"
	"github.com/serenityspa/serenity-api/model"
	"github.com/serenityspa/serenity-api/notify"
	"github.com/serenityspa/serenity-api/util"
)

func main() {
	cfg := config.LoadConfig()

	db, err := config.ConnectMySQL()
	if err != nil {
		log.Fatalf("Error connecting to MySQL: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Session{},
		&model.Therapist{},
		&model.Service{},
		&model.Booking{},
		&model.Review{},
		&model.SecurityLog{},
	); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}
	if err := model.SeedRoles(db); err != nil {
		log.Fatalf("Error seeding roles: %v", err)
	}
	if err := model.SeedServices(db); err != nil {
		log.Fatalf("Error seeding services: %v", err)
	}

	// Redis backs sessions, rate limiting, and booking status pub/sub. The
	// API still works without it, just slower and without live updates.
	if _, err := config.ConnectRedis(); err != nil {
		log.Printf("Redis unavailable, continuing without it: %v", err)
	}

	if cfg.GeoIPDBPath != "" {
		if err := util.InitGeoIP(cfg.GeoIPDBPath); err != nil {
			log.Printf("GeoIP database not loaded: %v", err)
		}
	}
	util.InitUserEmailCacheFromEnv()
	util.SetSecurityLoggerDB(db)

	endpoint.SetEmailSender(notify.SenderFromConfig(notify.SendGridConfig{
		APIKey:    cfg.SendGridKey,
		FromEmail: cfg.EmailFrom,
		FromName:  cfg.EmailFromName,
	}))
	endpoint.SetErrorReportRecipient(cfg.ErrorReportTo)

	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DatabaseMiddleware(db))
	router.Use(middleware.EndpointCallLogger())
	router.Use(middleware.ValidateAPIToken())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})

	authLimiter := middleware.RateLimiter(middleware.RateLimitConfig{
		Limit:  10,
		Window: 15 * time.Minute,
	})

	// Public: account entry points and everything the booking page needs
	// before sign-in.
	router.POST("/signup", authLimiter, endpoint.Signup)
	router.POST("/login", authLimiter, endpoint.Login)
	router.GET("/token/validate", endpoint.ValidateToken)
	router.GET("/services", endpoint.ListServices)
	router.GET("/therapists", endpoint.ListTherapists)
	router.GET("/therapists/:id", endpoint.GetTherapist)
	router.GET("/therapists/:id/reviews", endpoint.ListTherapistReviews)
	router.POST("/bookings", endpoint.CreateBooking)
	router.GET("/bookings/ref/:code", endpoint.GetBookingByReference)
	router.POST("/client-errors", endpoint.ReportClientError)

	auth := router.Group("/")
	auth.Use(middleware.ValidateLoginToken())
	{
		auth.DELETE("/logout", endpoint.Logout)
		auth.GET("/me", endpoint.GetMyProfile)
		auth.PATCH("/user", endpoint.UpdateUser)
		auth.POST("/verify-password", endpoint.VerifyPassword)
		auth.GET("/bookings/mine", endpoint.ListMyBookings)
		auth.POST("/reviews", endpoint.CreateReview)
		auth.PATCH("/reviews/:id", endpoint.UpdateReview)
	}

	therapist := router.Group("/therapist")
	therapist.Use(middleware.ValidateLoginToken(), middleware.RequireRole(model.RoleTherapist, model.RoleAdmin))
	{
		therapist.GET("/dashboard", endpoint.GetTherapistDashboard)
		therapist.GET("/dashboard/stream", endpoint.StreamTherapistDashboard)
		therapist.GET("/blockouts", endpoint.GetMyBlockouts)
		therapist.PUT("/blockouts", endpoint.SaveMyBlockouts)
	}

	admin := router.Group("/admin")
	admin.Use(middleware.ValidateLoginToken(), middleware.RequireRole(model.RoleAdmin))
	{
		admin.GET("/users", endpoint.ListUsers)
		admin.GET("/users/:id", endpoint.GetUserInfo)
		admin.PATCH("/users/:id", endpoint.AdminUpdateUser)
		admin.DELETE("/users/:id", endpoint.DeleteUser)
		admin.POST("/users/:id/reset-password", endpoint.ResetUserPassword)
		admin.POST("/therapists", endpoint.CreateTherapist)
		admin.PATCH("/therapists/:id", endpoint.UpdateTherapist)
		admin.POST("/therapists/:id/link", endpoint.LinkTherapistAccount)
		admin.POST("/services", endpoint.CreateService)
		admin.PATCH("/services/:id", endpoint.UpdateService)
		admin.GET("/bookings", endpoint.ListBookings)
		admin.PATCH("/bookings/:id/status", endpoint.UpdateBookingStatus)
		admin.GET("/security-logs", endpoint.ListSecurityLogs)
	}

	address := fmt.Sprintf(":%d", cfg.AppPort)
	if err := router.Run(address); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
