package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vostok-promo/service-voucher/internal/application"
	"github.com/vostok-promo/service-voucher/internal/auth"
	"github.com/vostok-promo/service-voucher/internal/config"
	"github.com/vostok-promo/service-voucher/internal/database"
	"github.com/vostok-promo/service-voucher/internal/events"
	"github.com/vostok-promo/service-voucher/internal/handler"
	"github.com/vostok-promo/service-voucher/internal/health"
	"github.com/vostok-promo/service-voucher/internal/logger"
	"github.com/vostok-promo/service-voucher/internal/middleware"
	"github.com/vostok-promo/service-voucher/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewNamed(cfg.AppEnv, "service-voucher")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting service-voucher",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(database.PostgresConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		DBName:   cfg.DB.DBName,
		SSLMode:  cfg.DB.SSLMode,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.CampaignModel{},
			&repository.BrandModel{},
			&repository.UserModel{},
			&repository.VoucherModel{},
			&repository.WinnerModel{},
			&repository.ActivationLogModel{},
		); err != nil {
			zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		zapLogger.Info("database migration completed (dev auto-migrate)")
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, 24*time.Hour)

	// Initialize event publisher
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Kafka.Enabled {
		producer := events.NewKafkaProducer(cfg.Kafka.Brokers, "service-voucher", zapLogger)
		defer producer.Close()
		publisher = producer
	} else {
		zapLogger.Warn("kafka brokers not configured, engine events disabled")
	}

	// Initialize repositories
	voucherRepo := repository.NewGormVoucherRepository(db)
	activationLogRepo := repository.NewGormActivationLogRepository(db)
	campaignRepo := repository.NewGormCampaignRepository(db)
	brandRepo := repository.NewGormBrandRepository(db)
	userRepo := repository.NewGormUserRepository(db)

	// Initialize application services
	voucherService := application.NewVoucherService(
		voucherRepo, activationLogRepo, campaignRepo, brandRepo, userRepo,
		publisher, cfg.Vouchers.MaxBatchSize, cfg.Vouchers.CodeLength, zapLogger,
	)
	userService := application.NewUserService(userRepo, voucherRepo, campaignRepo, brandRepo, zapLogger)
	campaignService := application.NewCampaignService(campaignRepo, zapLogger)
	brandService := application.NewBrandService(brandRepo, zapLogger)
	authService := application.NewAuthService(cfg.Admin.Username, cfg.Admin.PasswordHash, jwtManager, zapLogger)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.LoggerMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check and metrics routes
	healthHandler := health.NewHandler(db, "service-voucher")
	healthHandler.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register API routes
	apiV1 := router.Group("/api/v1")
	handler.NewAuthHandler(authService).RegisterRoutes(apiV1)
	handler.NewBotHandler(voucherService, userService).RegisterRoutes(apiV1)
	handler.NewAdminHandler(voucherService, userService, campaignService, brandService).RegisterRoutes(apiV1, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down service-voucher...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("service-voucher stopped")
}
