package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Goro-naka/koepon-sub001/internal/config"
	"github.com/Goro-naka/koepon-sub001/internal/database"
	"github.com/Goro-naka/koepon-sub001/internal/handlers"
	"github.com/Goro-naka/koepon-sub001/internal/middleware"
	"github.com/Goro-naka/koepon-sub001/internal/repositories"
	"github.com/Goro-naka/koepon-sub001/internal/services"
	"github.com/Goro-naka/koepon-sub001/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize logger
	logger.Init()
	defer logger.Sync()

	logger.Info("Starting koepon medal service...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", err)
	}

	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Wire repositories and services
	ledgerRepo := repositories.NewLedgerRepository(db)
	exchangeRepo := repositories.NewExchangeRepository(db, ledgerRepo)
	drawRepo := repositories.NewDrawRepository(db, ledgerRepo)

	rewardPolicy := services.RateRewardPolicy{
		Rate:         cfg.MedalRewardRate,
		TenDrawBonus: cfg.TenDrawBonus,
	}

	exchangeService := services.NewExchangeService(exchangeRepo, ledgerRepo)
	drawService := services.NewDrawService(
		drawRepo,
		services.NewHTTPPaymentGateway(cfg.PaymentAPIURL),
		services.NewHTTPDrawEngine(cfg.DrawAPIURL),
		rewardPolicy,
	)
	adminService := services.NewAdminService(ledgerRepo, exchangeRepo, drawRepo)

	// Periodic ledger verification
	stopIntegrity := make(chan struct{})
	go adminService.RunIntegrityCheck(time.Hour, stopIntegrity)

	// HTTP server
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerUser, cfg.RateLimitPerIP, time.Minute)
	h := handlers.NewHandlers(ledgerRepo, exchangeService, drawService, adminService)
	handlers.RegisterRoutes(router, h, cfg.JWTSecret, limiter)

	server := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: router,
	}

	go func() {
		logger.Info("Server listening", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully...")
	close(stopIntegrity)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
	logger.Info("Server stopped")
}
