package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/wayfinder-labs/service-wayfinding/internal/application"
	"github.com/wayfinder-labs/service-wayfinding/internal/config"
	"github.com/wayfinder-labs/service-wayfinding/internal/dialogue"
	"github.com/wayfinder-labs/service-wayfinding/internal/domain/movement"
	"github.com/wayfinder-labs/service-wayfinding/internal/domain/venue"
	wayfinderEvents "github.com/wayfinder-labs/service-wayfinding/internal/events"
	"github.com/wayfinder-labs/service-wayfinding/internal/handler"
	"github.com/wayfinder-labs/service-wayfinding/internal/mapping"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/auth"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/database"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/health"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/kafka"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/logger"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/middleware"
	"github.com/wayfinder-labs/service-wayfinding/internal/repository"
	"github.com/wayfinder-labs/service-wayfinding/internal/speech"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serviceName = "service-wayfinding"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("movement_write_mode", cfg.Navigation.MovementWriteMode),
	)

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
		if err := db.AutoMigrate(&repository.DestinationModel{}, &repository.MovementModel{}, &repository.MovementBatchModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), cfg.MigrationsDir, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	healthHandler := health.NewHandler(db, serviceName)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.TokenTTL)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize mapping engine, cached in Redis when configured
	var engine venue.Engine = mapping.NewClient(mapping.Config{
		BaseURL: cfg.Mapping.BaseURL,
		Key:     cfg.Mapping.Key,
		Secret:  cfg.Mapping.Secret,
		MapID:   cfg.Mapping.MapID,
		Timeout: cfg.Mapping.Timeout,
	})
	var entityCache handler.CacheInvalidator
	if cfg.RedisConfig.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		defer func() { _ = rdb.Close() }()

		cached := mapping.NewCachedEngine(engine, rdb, cfg.Mapping.MapID, cfg.Mapping.CacheTTL, log)
		engine, entityCache = cached, cached
		healthHandler.AddChecker("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		log.Info("mapping entity cache enabled", zap.String("redis", cfg.RedisConfig.Addr))
	}

	// Initialize repositories
	destinationRepo := repository.NewGormDestinationRepository(db)
	movementSink := newMovementSink(cfg.Navigation.MovementWriteMode, db)

	// Initialize application services
	navigationService := application.NewNavigationService(
		engine,
		movementSink,
		kafkaProducer,
		application.NavigationOptions{
			DefaultStart:   cfg.Navigation.DefaultStart,
			Accessible:     cfg.Navigation.Accessible,
			RoundDistances: cfg.Navigation.RoundDistances,
		},
		log,
	)
	destinationService := application.NewDestinationService(destinationRepo, log)

	dialogueClient := dialogue.NewClient(dialogue.Config{
		BaseURL: cfg.Dialogue.BaseURL,
		APIKey:  cfg.Dialogue.APIKey,
		Timeout: cfg.Dialogue.Timeout,
	})

	var synthesizer speech.Synthesizer
	if cfg.Speech.Enabled && cfg.Speech.APIKey != "" && cfg.Speech.VoiceID != "" {
		synthesizer = speech.NewTTSClient(speech.TTSConfig{
			BaseURL: cfg.Speech.BaseURL,
			APIKey:  cfg.Speech.APIKey,
			VoiceID: cfg.Speech.VoiceID,
			Settings: speech.VoiceSettings{
				Stability:       cfg.Speech.Stability,
				SimilarityBoost: cfg.Speech.SimilarityBoost,
			},
			Timeout: cfg.Speech.Timeout,
		})
	} else if cfg.Speech.Enabled {
		log.Warn("speech synthesis disabled: api key or voice id missing")
	}

	assistantService := application.NewAssistantService(
		dialogueClient,
		destinationRepo,
		navigationService,
		synthesizer,
		application.NewTurnCoordinator(),
		cfg.Navigation.TurnTimeout,
		log,
	)

	// Initialize and start destination event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "wayfinding-service"
	destinationConsumer := wayfinderEvents.NewDestinationEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		destinationService,
		log,
	)
	defer func() { _ = destinationConsumer.Close() }()

	go func() {
		log.Info("starting destination event consumer")
		if err := destinationConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("destination event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	navigationHandler := handler.NewNavigationHandler(navigationService)
	destinationHandler := handler.NewDestinationHandler(destinationService)
	assistantHandler := handler.NewAssistantHandler(assistantService)
	voiceHandler := handler.NewVoiceHandler(assistantService, cfg.AllowedOrigins, log)
	adminHandler := handler.NewAdminHandler(engine, entityCache)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.MetricsMiddleware())

	// Register health check and metrics routes
	healthHandler.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register routes
	navigationHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	destinationHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	assistantHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	voiceHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server. No write timeout: voice sockets are long-lived.
	srv := &http.Server{
		Addr:        cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
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

	log.Info("shutting down " + serviceName + "...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}

func newMovementSink(mode string, db *gorm.DB) movement.Sink {
	if mode == config.MovementModeBatch {
		return repository.NewGormBatchMovementRepository(db)
	}
	return repository.NewGormStepMovementRepository(db)
}
