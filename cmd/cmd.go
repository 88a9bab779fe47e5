package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sadbytecom/couplex/internal/config"
	"github.com/sadbytecom/couplex/internal/database"
	"github.com/sadbytecom/couplex/internal/handlers"
	"github.com/sadbytecom/couplex/internal/middleware"
	"github.com/sadbytecom/couplex/internal/push"
	"github.com/sadbytecom/couplex/internal/repository"
	"github.com/sadbytecom/couplex/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := database.NewPostgresDB(cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	// Apply schema migrations
	migrationsDir := cfg.Database.Migrations
	if migrationsDir == "" {
		migrationsDir = "migrations"
	}
	if err := database.Migrate(cfg.Database.URL(), migrationsDir); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Msg("Database migrations applied")

	// Connect to redis for rate limiting, optional
	var redisClient *redis.Client
	var redisHealth handlers.HealthChecker
	if cfg.Redis.Addr != "" {
		rdb, err := database.NewRedisDB(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer rdb.Close()
		redisClient = rdb.Client
		redisHealth = rdb
		log.Info().Msg("Redis connection established")
	} else {
		log.Warn().Msg("Redis disabled, rate limiting is off")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.Pool)
	partnershipRepo := repository.NewPartnershipRepository(db.Pool)
	emotionRepo := repository.NewEmotionRepository(db.Pool)

	// Initialize services
	userService := services.NewUserService(userRepo, cfg.JWT.Secret)
	partnershipService := services.NewPartnershipService(partnershipRepo, userRepo)
	emotionService := services.NewEmotionService(emotionRepo, partnershipRepo, userRepo)
	hub := services.NewHub()

	// APNs push delivery, optional
	var pusher handlers.EmotionPusher
	if cfg.APNS.KeyPath != "" {
		apnsClient, err := push.NewClient(push.Config{
			KeyPath:    cfg.APNS.KeyPath,
			KeyID:      cfg.APNS.KeyID,
			TeamID:     cfg.APNS.TeamID,
			Topic:      cfg.APNS.Topic,
			Production: cfg.APNS.Production,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create APNs client")
		}
		pusher = apnsClient
		log.Info().Msg("APNs push delivery enabled")
	} else {
		log.Warn().Msg("APNs disabled, offline partners will not be notified")
	}

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	partnershipHandler := handlers.NewPartnershipHandler(partnershipService, hub)
	emotionHandler := handlers.NewEmotionHandler(emotionService, userService, hub, pusher)
	wsHandler := handlers.NewWebSocketHandler(hub, userService, partnershipService)
	healthHandler := handlers.NewHealthHandler(db, redisHealth)

	authLimiter := middleware.NewRateLimiter(redisClient, 10, time.Minute, "rl:auth:")

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/users", userHandler.CreateUser)
			r.Post("/auth/login", userHandler.Login)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))
			r.Patch("/users", userHandler.Rename)
			r.Put("/devices", userHandler.RegisterDevice)
			r.Get("/partner", partnershipHandler.GetPartnerInfo)
			r.Post("/partnerships", partnershipHandler.CreatePartnership)
			r.Get("/emotions", emotionHandler.ListEmotions)
			r.Post("/emotions", emotionHandler.ShareEmotion)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Health route, no auth or rate limit
	r.Get("/health", healthHandler.Health)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
