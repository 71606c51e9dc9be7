package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"fleet/internal/app"
	"fleet/internal/config"
	"fleet/internal/handler"
	"fleet/internal/notify"
	internalRedis "fleet/internal/redis"
	"fleet/internal/repository/postgres"
	"fleet/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, err := wireServer(db, redisClient, nrApp, cfg)
	if err != nil {
		log.Fatalf("failed to wire server: %v", err)
	}

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, error) {
	// Initialize stores.
	cacheStore := internalRedis.NewCacheStore(redisClient)
	store := postgres.NewStore(db)

	// Initialize the notification dispatcher. Without a push endpoint the
	// lifecycle services run silent and the dispatch API is unavailable.
	var dispatcher *notify.Dispatcher
	if cfg.Push.Enabled && cfg.Push.Endpoint != "" {
		sender, err := notify.NewPushSender(cfg.Push.Endpoint, cfg.Push.Token, cfg.Push.Timeout)
		if err != nil {
			return nil, err
		}
		dispatcher, err = notify.NewDispatcher(store, sender, cfg.Notify.EscalateFailures)
		if err != nil {
			return nil, err
		}
	} else {
		log.Println("Push channel not configured; notifications disabled")
	}

	// Services take the dispatcher through the Notifier interface; a nil
	// interface value must stay nil, hence the indirection.
	var notifier service.Notifier
	if dispatcher != nil {
		notifier = dispatcher
	}

	// Initialize services.
	vehicleService := service.NewVehicleService(store, cacheStore)
	bookingService := service.NewBookingService(store, notifier, cacheStore)
	usageService := service.NewUsageService(store, notifier, cacheStore)
	maintenanceService := service.NewMaintenanceService(store, notifier, cacheStore)
	expenseService := service.NewExpenseService(store)
	userService := service.NewUserService(store, cacheStore)

	// Initialize handlers.
	vehicleHandler := handler.NewVehicleHandler(vehicleService, usageService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	usageHandler := handler.NewUsageHandler(usageService)
	maintenanceHandler := handler.NewMaintenanceHandler(maintenanceService)
	expenseHandler := handler.NewExpenseHandler(expenseService)
	userHandler := handler.NewUserHandler(userService)
	notificationHandler := handler.NewNotificationHandler(dispatcher, store.Preferences())

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		VehicleHandler:      vehicleHandler,
		BookingHandler:      bookingHandler,
		UsageHandler:        usageHandler,
		MaintenanceHandler:  maintenanceHandler,
		ExpenseHandler:      expenseHandler,
		UserHandler:         userHandler,
		NotificationHandler: notificationHandler,
		RedisClient:         redisClient,
		NewRelicApp:         nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, nil
}
