package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go"

	"residence-booking/config"
	"residence-booking/internal/handlers"
	"residence-booking/internal/services"
	"residence-booking/internal/services/geocode"
	"residence-booking/internal/services/notify"
	"residence-booking/internal/services/paystack"
	_ "residence-booking/migrations"
	"residence-booking/monitoring"
	"residence-booking/security"
	"residence-booking/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub
	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.PubNubPublishKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		notifier = notify.NewPubNubNotifier(pubnub.NewPubNub(pnConfig))
	}

	// Initialize Paystack
	gateway, err := paystack.New(&paystack.Config{
		SecretKey:   cfg.PaystackSecretKey,
		BaseURL:     cfg.PaystackBaseURL,
		CallbackURL: cfg.PaystackCallbackURL,
	})
	if err != nil {
		return err
	}

	geocoder := geocode.New(&geocode.Config{
		BaseURL:   cfg.GeocodeBaseURL,
		UserAgent: cfg.GeocodeUserAgent,
		Country:   cfg.GeocodeCountry,
		CacheTTL:  cfg.GeocodeCacheTTL,
	}, redisClient)

	monitor := monitoring.NewMonitor()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize services
	keyCodeService := services.NewKeyCodeService(redisClient)
	bookingService := services.NewBookingService(app, keyCodeService, notifier, monitor)
	paymentService := services.NewPaymentService(app, gateway, bookingService, monitor)
	reaper := services.NewReaper(app, monitor, cfg.ReaperInterval, cfg.BookingRequestTTL, cfg.PaymentTTL)

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(app, bookingService)
	paymentHandler := handlers.NewPaymentHandler(app, paymentService)
	adminHandler := handlers.NewAdminHandler(app, bookingService)
	geoHandler := handlers.NewGeoHandler(geocoder)

	limiter := security.NewRateLimiter(redisClient)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Start background tasks
	go reaper.Start(ctx)
	if cfg.EnableMetrics {
		monitoring.StartMetricsServer(cfg.MetricsPort)
	}

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Booking endpoints (client)
		e.Router.POST("/api/v1/bookings", bookingHandler.Create)
		e.Router.GET("/api/v1/bookings", bookingHandler.List)
		e.Router.GET("/api/v1/bookings/{id}", bookingHandler.Detail)
		e.Router.POST("/api/v1/bookings/{id}/cancel", bookingHandler.Cancel)
		e.Router.GET("/api/v1/bookings/{id}/payment-info", bookingHandler.PaymentInfo)
		e.Router.GET("/api/v1/bookings/{id}/key-code", bookingHandler.KeyCode)

		// Owner endpoints
		e.Router.GET("/api/v1/owner/inbox", bookingHandler.Inbox)
		e.Router.POST("/api/v1/owner/bookings/{id}/decision", bookingHandler.Decide)
		e.Router.POST("/api/v1/owner/validate-key", bookingHandler.ValidateKey).
			BindFunc(limiter.Limit("validate-key", cfg.ValidateKeyLimit, cfg.ValidateKeyWindow))

		// Payment endpoints
		e.Router.POST("/api/v1/payments/initialize", paymentHandler.Initialize)
		e.Router.POST("/api/v1/payments/verify/{reference}", paymentHandler.Verify)
		e.Router.GET("/api/v1/payments/transactions", paymentHandler.Transactions)
		e.Router.POST("/api/v1/payments/webhook/paystack", paymentHandler.Webhook).
			BindFunc(limiter.Limit("webhook", cfg.WebhookLimit, cfg.WebhookWindow))

		// Admin endpoints
		e.Router.GET("/api/v1/admin/payouts", adminHandler.PayoutQueue).
			Bind(apis.RequireSuperuserAuth())
		e.Router.POST("/api/v1/admin/bookings/{id}/release", adminHandler.Release).
			Bind(apis.RequireSuperuserAuth())

		// Geocoding endpoints
		e.Router.GET("/api/v1/geo/reverse", geoHandler.Reverse)
		e.Router.GET("/api/v1/geo/search", geoHandler.Search)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
