package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kilat-Pet-Delivery/service-navigation/internal/application"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/config"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/engine/directions"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/engine/surface"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/engine/trip"
	navEvents "github.com/Kilat-Pet-Delivery/service-navigation/internal/events"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/handler"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/database"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/health"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/kafka"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/logger"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/middleware"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/relay"
	"github.com/Kilat-Pet-Delivery/service-navigation/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-navigation")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-navigation",
		zap.String("port", cfg.Port),
	)

	defaults, err := config.LoadDefaultOptions(cfg.OptionsProfile)
	if err != nil {
		log.Fatal("failed to load options profile", zap.Error(err))
	}

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.TripModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.AccessTTL)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize trip journal
	tripRepo := repository.NewGormTripRepository(db)
	journal := application.NewTripJournal(tripRepo, kafkaProducer, cfg.JournalQueueSize, log.Named("journal"))
	go journal.Run(ctx)

	// Initialize engine adapters
	eventRelay := relay.New(log.Named("relay"))
	routeService := directions.NewClient(directions.Config{
		BaseURL:     cfg.Directions.BaseURL,
		AccessToken: cfg.Directions.AccessToken,
		Timeout:     cfg.Directions.Timeout,
	}, log.Named("directions"))
	tripSession := trip.NewSimulator(trip.Config{
		Tick:  cfg.Simulation.Tick,
		Speed: cfg.Simulation.Speed,
	}, log.Named("trip"))
	mapSurface := surface.New(log.Named("surface"))

	// Initialize session controller
	controller := application.NewSessionController(
		defaults,
		eventRelay,
		routeService,
		tripSession,
		mapSurface,
		journal,
		log,
	)
	tripSession.RegisterObserver(controller)
	defer controller.Close()

	tripService := application.NewTripService(tripRepo, log)

	// Initialize and start command consumer in a goroutine
	if cfg.CommandsEnabled {
		groupID := cfg.KafkaConfig.GroupPrefix + "navigation-service"
		commandConsumer := navEvents.NewCommandConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			controller,
			log,
		)
		defer func() { _ = commandConsumer.Close() }()

		go func() {
			log.Info("starting navigation command consumer")
			if err := commandConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("navigation command consumer error", zap.Error(err))
			}
		}()
	}

	// Initialize HTTP handlers
	navigationHandler := handler.NewNavigationHandler(controller, eventRelay, log)
	tripHandler := handler.NewTripHandler(tripService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-navigation")
	healthHandler.RegisterRoutes(router)

	// Register routes
	navigationHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	tripHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server. WriteTimeout stays zero so the event stream is
	// not cut off.
	srv := &http.Server{
		Addr:        cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-navigation...")

	// Cancel the consumer, journal and event stream contexts
	cancel()
	eventRelay.Cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-navigation stopped")
}
