package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/photoorder/server/internal/config"
	"github.com/photoorder/server/internal/handlers"
	custommw "github.com/photoorder/server/internal/middleware"
	"github.com/photoorder/server/internal/observability"
	"github.com/photoorder/server/internal/repository"
	"github.com/photoorder/server/internal/services"
)

// @title Photo Order Server API
// @version 1.0
// @description Versioned property photo order store with sync channel
// @BasePath /
// @securityDefinitions.apikey AdminKey
// @in header
// @name X-Admin-Key
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.GetLogger()

	// Initialize telemetry
	ctx := context.Background()
	telemetry, err := observability.Initialize(ctx, observability.NewConfig("photo-order-server", "1.0.0"))
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Telemetry shutdown: %v", err)
		}
	}()

	// Initialize database and repositories
	var db *sql.DB
	if cfg.UsePostgres() {
		logger.Info("Using PostgreSQL database")
		db, err = repository.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL database: %v", err)
		}
	} else {
		logger.Info("Using SQLite database")
		db, err = repository.NewSQLiteDB(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite database: %v", err)
		}
	}
	defer db.Close()
	orderRepo := repository.NewOrderRepository(db)
	trashRepo := repository.NewTrashRepository(db)

	// Initialize services
	catalog, err := services.NewCatalogService(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load property catalog: %v", err)
	}

	storage, err := services.NewMediaStorageService(
		cfg.MediaStorage.BasePath,
		cfg.MediaStorage.PublicBaseURL,
		cfg.MediaStorage.AllowedExtensions,
		cfg.MediaStorage.MaxFileSizeMB,
	)
	if err != nil {
		log.Fatalf("Failed to initialize media storage: %v", err)
	}

	thumbnails := services.NewThumbnailService(storage.BasePath())
	exif := services.NewEXIFService()
	trashService := services.NewTrashService(trashRepo, storage, catalog, cfg.Trash.RetentionDays)

	hub := services.NewSyncHub()
	go hub.Run()

	orderMetrics, err := observability.NewOrderMetrics()
	if err != nil {
		logger.Warnf("Order metrics unavailable: %v", err)
	}
	hub.SetMetrics(orderMetrics)
	orderService := services.NewOrderService(orderRepo, hub, orderMetrics)

	// Background retention sweep for trashed photos
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if purged, err := trashService.PurgeExpired(sweepCtx); err != nil {
					logger.Errorf("Trash retention sweep: %v", err)
				} else if purged > 0 {
					logger.Infof("Trash retention sweep purged %d items", purged)
				}
			}
		}
	}()

	// Initialize handlers
	orderHandler := handlers.NewOrderHandler(orderService)
	uploadHandler := handlers.NewUploadHandler(storage, thumbnails, exif, catalog)
	trashHandler := handlers.NewTrashHandler(trashService)
	catalogHandler := handlers.NewCatalogHandler(catalog)
	wsHandler := handlers.NewWebSocketHandler(hub)
	healthHandler := handlers.NewHealthHandler(db, catalog)

	httpMetrics, err := observability.NewHTTPMetrics()
	if err != nil {
		logger.Warnf("HTTP metrics unavailable: %v", err)
	}

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(observability.Middleware(httpMetrics))

	adminAuth := custommw.AdminKeyAuth(cfg.Security.AdminKey, cfg.Security.AdminKeyHeader)

	// Routes
	r.Get("/health", healthHandler.HealthCheck)
	r.Get("/api/health", healthHandler.HealthCheck)

	r.Get("/api/properties", catalogHandler.List)
	r.Get("/api/photo-order", orderHandler.Get)
	r.With(adminAuth).Post("/api/photo-order", orderHandler.Save)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(adminAuth)
		r.Post("/upload", uploadHandler.Upload)
		r.Post("/delete", trashHandler.Delete)
		r.Get("/trash", trashHandler.List)
		r.Post("/restore", trashHandler.Restore)
		r.Post("/purge", trashHandler.Purge)
	})

	r.Get("/ws", wsHandler.HandleConnection)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Serve stored media
	fileServer := http.StripPrefix(cfg.MediaStorage.PublicBaseURL+"/", http.FileServer(http.Dir(storage.BasePath())))
	r.Get(cfg.MediaStorage.PublicBaseURL+"/*", fileServer.ServeHTTP)

	// Create server
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Longer for uploads
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Photo Order Server starting on %s", cfg.ServerAddress)
		logger.Infof("Media storage path: %s", cfg.MediaStorage.BasePath)
		logger.Infof("Trash retention: %d days", cfg.Trash.RetentionDays)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
