package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edulink/backend/docs"
	"github.com/edulink/backend/internal/config"
	"github.com/edulink/backend/internal/database"
	"github.com/edulink/backend/internal/handlers"
	"github.com/edulink/backend/internal/logger"
	"github.com/edulink/backend/internal/metrics"
	mW "github.com/edulink/backend/internal/middleware"
	"github.com/edulink/backend/internal/notify"
	"github.com/edulink/backend/internal/services"
	"github.com/edulink/backend/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title EduLink Engagement API
// @version 1.0
// @description Credits, subscriptions, contact unlocks and teacher applications
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	v := config.New()
	cfg, err := config.Load(v)
	if err != nil {
		zap.NewExample().Fatal("Invalid configuration", zap.Error(err))
	}

	log := logger.New(cfg.Env)
	defer log.Sync()

	docs.SwaggerInfo.Host = "localhost:" + cfg.Server.Port

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st store.Store
	switch cfg.Store.Driver {
	case "postgres":
		db, err := database.InitDB(ctx, v, log)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if err := database.Migrate(ctx, db, log); err != nil {
			log.Fatal("Failed to run migrations", zap.Error(err))
		}
		st = store.NewPostgres(db)
	default:
		log.Warn("Using in-memory store; data is lost on restart")
		st = store.NewMemory()
	}

	var (
		transport notify.Transport
		inbox     handlers.Inbox
	)
	redisClient := database.InitRedis(ctx, v, log)
	if redisClient != nil {
		defer redisClient.Close()
		transport = notify.NewRedisTransport(redisClient, cfg.Notifications.InboxCap)
		inbox = notify.NewInbox(redisClient, cfg.Notifications.DedupeTTL, log)
	} else {
		log.Warn("Redis unavailable; notifications are logged only")
		transport = notify.NewLogTransport(log)
	}

	dispatcher := notify.NewDispatcher(transport, cfg.Notifications.OutboxSize, log)
	go dispatcher.Run(ctx, cfg.Notifications.RetryInterval)

	// Initialize services
	runner := services.NewTxRunner(st, cfg.Store.MaxRetries, cfg.Store.RetryBase, log)
	audit := services.NewAuditLogger(log)
	accountService := services.NewAccountService(runner, audit, log)
	creditService := services.NewCreditService(runner, cfg.Catalog, dispatcher, audit, log)
	subscriptionService := services.NewSubscriptionService(runner, dispatcher, audit, log)
	gate := services.NewAccessGate(st)
	contactService := services.NewContactService(runner, gate, creditService, audit, log)
	applicationService := services.NewApplicationService(runner, services.NewValidationHelper(), dispatcher, audit, log)
	qrService := services.NewQRService(contactService, applicationService)

	api := &handlers.API{
		Accounts:      handlers.NewAccountHandler(accountService, subscriptionService, log),
		Credits:       handlers.NewCreditHandler(creditService, log),
		Contacts:      handlers.NewContactHandler(gate, contactService, qrService, log),
		Applications:  handlers.NewApplicationHandler(applicationService, log),
		Notifications: handlers.NewNotificationHandler(inbox, log),
	}

	auth := mW.NewAuth(cfg.JWT.SecretKey, redisClient, log)
	limiter := mW.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
	limiter.StartCleanup(time.Minute, ctx.Done())

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	r.Handle("/metrics", metrics.Handler())

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Mount("/api/v1", api.Routes(auth.Middleware, limiter.Handler))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		log.Info("Server starting", zap.String("addr", server.Addr), zap.String("store", cfg.Store.Driver))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	log.Info("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
	if pending := dispatcher.Pending(); pending > 0 {
		log.Warn("Undelivered notifications dropped at shutdown", zap.Int("pending", pending))
	}

	log.Info("Server stopped")
}
