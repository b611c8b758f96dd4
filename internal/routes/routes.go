package routes

import (
	"time"

	"medivault-server/internal/handlers"
	"medivault-server/internal/middleware"
	"medivault-server/internal/models"
	"medivault-server/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies are the services the HTTP layer exposes.
type Dependencies struct {
	JWTSecret    string
	Location     *time.Location
	Appointments *services.AppointmentService
	Chat         *services.ChatService
	Dashboard    *services.DashboardService
	Logger       *zap.Logger
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	// Initialize handlers
	userHandler := handlers.NewUserHandler(deps.Appointments, deps.Logger)
	appointmentHandler := handlers.NewAppointmentHandler(deps.Appointments, deps.Location, deps.Logger)
	messageHandler := handlers.NewMessageHandler(deps.Chat, deps.Logger)
	dashboardHandler := handlers.NewDashboardHandler(deps.Dashboard, deps.Logger)

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(deps.JWTSecret))
	{
		userRoutes := private.Group("/users")
		{
			// Accessible by all authenticated users for booking
			userRoutes.GET("/doctors", userHandler.GetDoctors)
			userRoutes.GET("/doctor-patients", middleware.RoleAuthMiddleware(models.RoleDoctor), userHandler.GetDoctorPatients)
		}

		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointmentsForUser)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)

			// Participant and state checks happen in the service
			appointmentRoutes.PUT("/:id/status", appointmentHandler.UpdateAppointmentStatus)
			appointmentRoutes.PATCH("/:id/reschedule", appointmentHandler.RescheduleAppointment)
			appointmentRoutes.DELETE("/:id", appointmentHandler.DeleteAppointment)
		}

		chatRoutes := private.Group("/chat")
		{
			chatRoutes.POST("/send", messageHandler.SendMessage)
			chatRoutes.GET("/history/:peerId", messageHandler.GetHistory)
			chatRoutes.POST("/read/:senderId", messageHandler.MarkRead)
			chatRoutes.GET("/unread", messageHandler.GetUnreadCount)
			chatRoutes.GET("/partners", messageHandler.GetConversations)
		}

		private.GET("/dashboard", dashboardHandler.GetDashboard)
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
