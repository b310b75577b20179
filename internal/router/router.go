// internal/router/router.go
package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mcgboard/permits-backend/internal/config"
	"github.com/mcgboard/permits-backend/internal/handlers"
	"github.com/mcgboard/permits-backend/internal/middleware"
	"github.com/mcgboard/permits-backend/internal/pdf"
	"github.com/mcgboard/permits-backend/internal/services"
	"github.com/mcgboard/permits-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config, log *logrus.Logger) *gin.Engine {
	// Initialize services
	var redisClient redis.UniversalClient
	if cfg.Permits.NotifyEnabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	clock := services.SystemClock()

	notificationService := services.NewNotificationService(db, redisClient, log)
	permitService := services.NewPermitService(db, notificationService, clock, log)
	analyticsService := services.NewAnalyticsService(db, permitService, clock, log)
	gradeService := services.NewGradeService(db)
	documentService := services.NewDocumentService(permitService, analyticsService, pdf.NewGenerator(), clock)

	// Initialize handlers
	permitHandler := handlers.NewPermitHandler(permitService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	gradeHandler := handlers.NewGradeHandler(gradeService)
	documentHandler := handlers.NewDocumentHandler(documentService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	v1.Use(middleware.AuthRequired())
	{
		// Coffee grade routes
		grades := v1.Group("/grades")
		{
			grades.GET("", gradeHandler.ListGrades)
			grades.GET("/:id", gradeHandler.GetGrade)

			staffOnly := grades.Group("")
			staffOnly.Use(middleware.StaffRequired())
			{
				staffOnly.POST("", gradeHandler.CreateGrade)
				staffOnly.PUT("/:id", gradeHandler.UpdateGrade)
				staffOnly.DELETE("/:id", gradeHandler.DeleteGrade)
			}
		}

		// Permit routes
		permits := v1.Group("/permits")
		{
			permits.GET("", permitHandler.ListPermits)
			permits.GET("/pending", permitHandler.PendingPermits)
			permits.GET("/society-metrics", permitHandler.SocietyMetrics)
			permits.GET("/staff-metrics", permitHandler.StaffMetrics)

			// Analytics routes
			permits.GET("/analytics", analyticsHandler.StatusAnalytics)
			permits.GET("/coffee-analytics", analyticsHandler.CoffeeWeightAnalytics)
			permits.GET("/top-societies", analyticsHandler.TopSocieties)
			permits.GET("/top-factories", analyticsHandler.TopFactories)
			permits.GET("/top-grades", analyticsHandler.TopGrades)
			permits.GET("/cumulative-status", analyticsHandler.CumulativeStatus)
			permits.GET("/analytics/report-pdf", middleware.ReportRateLimit(), documentHandler.AnalyticsReport)

			permits.GET("/:id", permitHandler.GetPermit)
			permits.GET("/:id/pdf", middleware.ReportRateLimit(), documentHandler.PermitDocument)

			// Mutations
			mutations := permits.Group("")
			mutations.Use(middleware.MutationRateLimit())
			{
				mutations.POST("", permitHandler.SubmitPermit)
				mutations.POST("/:id/approve", permitHandler.ApprovePermit)
				mutations.POST("/:id/reject", permitHandler.RejectPermit)
				mutations.POST("/:id/cancel", permitHandler.CancelPermit)
				mutations.POST("/bulk-approve", permitHandler.BulkApprove)
				mutations.POST("/bulk-reject", permitHandler.BulkReject)
				mutations.POST("/bulk-cancel", permitHandler.BulkCancel)
			}
		}

		// Notification routes
		notifications := v1.Group("/notifications")
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
		}
	}

	return r
}

// Addr renders the listen address from config.
func Addr(cfg *config.Config) string {
	return fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
}
