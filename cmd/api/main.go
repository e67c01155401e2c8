package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"stroketraining/internal/config"
	"stroketraining/internal/database"
	"stroketraining/internal/database/migration"
	handlers "stroketraining/internal/http/handler"
	"stroketraining/internal/http/middleware"
	"stroketraining/internal/otel"
	"stroketraining/internal/repository/postgres"
	"stroketraining/internal/service"
	"stroketraining/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()

	// Initialize tracing. OTEL_SDK_DISABLED=true degrades to a noop provider.
	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Initialize repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	docSvc := service.NewDocumentService(objStore, docRepo, service.Options{
		MaxBatchFiles: cfg.Upload.MaxBatchFiles,
		PresignExpiry: time.Duration(cfg.Upload.PresignExpirySec) * time.Second,
		URLCacheSize:  cfg.Upload.URLCacheSize,
		URLCacheTTL:   time.Duration(cfg.Upload.URLCacheTTLSec) * time.Second,
		UploadTimeout: time.Duration(cfg.Upload.TimeoutSec) * time.Second,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())

	// Document routes require a valid access token; health, metrics and docs
	// stay open.
	app.Use("/documents", middleware.Auth([]byte(cfg.Auth.JWTSecret)))
	app.Use("/documents", middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Handler())

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, docSvc, promMiddleware)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
