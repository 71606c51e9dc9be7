package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"fleet/internal/handler"
	"fleet/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	VehicleHandler      *handler.VehicleHandler
	BookingHandler      *handler.BookingHandler
	UsageHandler        *handler.UsageHandler
	MaintenanceHandler  *handler.MaintenanceHandler
	ExpenseHandler      *handler.ExpenseHandler
	UserHandler         *handler.UserHandler
	NotificationHandler *handler.NotificationHandler
	RedisClient         *redis.Client
	NewRelicApp         *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.RedisClient != nil {
		router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// User routes.
		users := v1.Group("/users")
		{
			users.POST("", deps.UserHandler.Register)
			users.GET("", deps.UserHandler.GetAll)
			users.GET("/:id", deps.UserHandler.Get)
		}

		// Vehicle routes.
		vehicles := v1.Group("/vehicles")
		{
			vehicles.POST("", deps.VehicleHandler.Register)
			vehicles.GET("", deps.VehicleHandler.GetAll)
			vehicles.GET("/:id", deps.VehicleHandler.Get)
			vehicles.POST("/:id/retire", deps.VehicleHandler.Retire)
			vehicles.GET("/:id/usages", deps.VehicleHandler.GetUsages)
			vehicles.GET("/:id/maintenance", deps.MaintenanceHandler.GetHistory)
			vehicles.GET("/:id/expenses", deps.ExpenseHandler.GetByVehicle)
		}

		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.CreateBooking)
			bookings.GET("/pending", deps.BookingHandler.GetPending)
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.POST("/:id/approve", deps.BookingHandler.ApproveBooking)
			bookings.POST("/:id/reject", deps.BookingHandler.RejectBooking)
		}

		// Usage routes.
		usages := v1.Group("/usages")
		{
			usages.POST("", deps.UsageHandler.StartUsage)
			usages.GET("/:id", deps.UsageHandler.GetUsage)
			usages.POST("/:id/return", deps.UsageHandler.ReturnUsage)
			usages.POST("/:id/force-return", deps.UsageHandler.ForceReturn)
		}

		// Maintenance routes.
		maintenance := v1.Group("/maintenance")
		{
			maintenance.POST("/send", deps.MaintenanceHandler.SendToGarage)
			maintenance.POST("/cost-only", deps.MaintenanceHandler.LogCostOnly)
			maintenance.POST("/:id/receive", deps.MaintenanceHandler.ReceiveFromGarage)
			maintenance.POST("/:id/cancel", deps.MaintenanceHandler.CancelRequest)
		}

		// Expense routes.
		expenses := v1.Group("/expenses")
		{
			expenses.POST("", deps.ExpenseHandler.Create)
			expenses.DELETE("/:id", deps.ExpenseHandler.Delete)
		}

		// Notification routes.
		notifications := v1.Group("/notifications")
		{
			notifications.POST("/dispatch", deps.NotificationHandler.Dispatch)
			notifications.GET("/preferences", deps.NotificationHandler.GetPreferences)
			notifications.PUT("/preferences", deps.NotificationHandler.SetPreference)
		}
	}

	return router
}
