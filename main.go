package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"owner-console/config"
	"owner-console/console"
	"owner-console/database"
	"owner-console/editor"
	"owner-console/firebase"
	"owner-console/middleware"
	"owner-console/ownerapi"
	"owner-console/routes"
	"owner-console/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables
	if err := config.LoadEnv(); err != nil {
		log.Fatal("Error loading .env file:", err)
	}

	// Validate critical environment variables
	if err := config.ValidateEnv(); err != nil {
		log.Fatal("Environment validation failed: ", err)
	}

	cfg := config.Load()

	logger, err := utils.NewLogger(cfg.AppEnv, cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer logger.Sync()

	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Session snapshots: postgres when configured, otherwise in memory
	var db *gorm.DB
	var snapshots console.SnapshotStore = console.NewMemorySnapshots()
	if cfg.DatabaseURL != "" {
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		if err := database.Migrate(db); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		snapshots = console.NewGormSnapshots(db)
	}

	// Upload previews: Firebase bucket when configured, otherwise in memory
	var previews editor.PreviewStore = editor.NewMemoryPreviews(cfg.PreviewURL)
	if cfg.StorageBucket != "" {
		app, err := firebase.Init(ctx, cfg.StorageBucket, logger)
		if err != nil {
			logger.Fatal("failed to initialize firebase", zap.Error(err))
		}
		objects, err := firebase.NewBucketObjects(ctx, app, cfg.StorageBucket)
		if err != nil {
			logger.Fatal("failed to open storage bucket", zap.Error(err))
		}
		previews = firebase.NewPreviewStore(objects, cfg.PreviewURL)
	} else if cfg.DatabaseURL != "" {
		logger.Warn("pending uploads are kept in memory; restored sessions drop them after a restart")
	}

	ownerAPI := ownerapi.New(cfg.OwnerAPIURL, cfg.OwnerTimeout, logger.Named("ownerapi"))
	svc := console.NewService(ownerAPI, previews, snapshots, logger.Named("console"))

	if n, err := svc.PruneStale(ctx, cfg.SessionTTL); err != nil {
		logger.Warn("could not prune stale sessions", zap.Error(err))
	} else if n > 0 {
		logger.Info("pruned stale sessions", zap.Int("count", n))
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	defer limiter.Stop()

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.ZapLogger(logger))

	r.MaxMultipartMemory = int64(cfg.MaxUploadMB) << 20

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Setup routes
	routes.SetupRoutes(r, routes.Deps{
		Console:   svc,
		Stockists: ownerAPI,
		Previews:  previews,
		Limiter:   limiter,
		Log:       logger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Run server in a goroutine
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("owner_api", cfg.OwnerAPIURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// Close database connection
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Error("error closing database connection", zap.Error(err))
			} else {
				logger.Info("database connection closed")
			}
		}
	}

	logger.Info("server exited gracefully")
}
