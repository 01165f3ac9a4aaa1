package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"savdesk/config"
	"savdesk/controllers"
	"savdesk/database"
	"savdesk/logger"
	"savdesk/middleware"
	"savdesk/routes"
	"savdesk/services"
	"savdesk/utils"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize config
	config.InitConfig()
	cfg := config.AppConfig
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Initialize DBs
	db, err := database.InitDB(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize GORM database", zap.Error(err))
	}
	defer database.CloseDB(db)

	reporting, err := database.InitLegacyDB(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize reporting database", zap.Error(err))
	}
	defer database.CloseLegacyDB(reporting)

	// Run migrations
	if err := database.RunMigrations(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run migrations", zap.Error(err))
	}
	passwordHash, err := utils.HashPassword(cfg.DefaultResponsablePassword)
	if err != nil {
		zapLogger.Fatal("Failed to hash default password", zap.Error(err))
	}
	if err := database.SeedDefaultResponsable(db, cfg.DefaultResponsableEmail, cfg.DefaultResponsableUsername, passwordHash, zapLogger); err != nil {
		zapLogger.Fatal("Failed to seed default ResponsableSAV", zap.Error(err))
	}

	var gateway services.PaymentGateway
	if cfg.RazorpayKey != "" && cfg.RazorpaySecret != "" {
		gateway = services.NewRazorpayGateway(cfg.RazorpayKey, cfg.RazorpaySecret)
	} else {
		zapLogger.Warn("Razorpay credentials missing, payment orders are disabled")
	}

	svc := services.New(cfg, db, reporting, gateway, zapLogger)
	ctl := controllers.New(svc, db, cfg.RazorpayKey, zapLogger)

	// Setup router
	if !config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(zapLogger))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// CORS settings
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	routes.SetupRoutes(r, ctl, cfg.JWTSecret)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("Server running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
}

